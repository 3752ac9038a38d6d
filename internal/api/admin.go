package api

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// UserList is one page of accounts.
type UserList struct {
	Users   []User `json:"users"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// UserGroupList is one page of permission groups.
type UserGroupList struct {
	Groups  []UserGroup `json:"groups"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}

// ProviderList is one page of model providers.
type ProviderList struct {
	Providers []Provider `json:"providers"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	PerPage   int        `json:"per_page"`
}

// AdminListUsers returns one page of all accounts.
func (c *Client) AdminListUsers(ctx context.Context, page, perPage int) (*UserList, error) {
	var out UserList
	p := Params{"page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointAdminUsersList, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminGetUser fetches one account by id.
func (c *Client) AdminGetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var out User
	if err := c.CallJSON(ctx, EndpointAdminUsersGet, Params{"user_id": userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUserRequest carries the account fields an admin may change; nil
// fields stay untouched.
type UpdateUserRequest struct {
	Username *string         `json:"username,omitempty"`
	Email    *string         `json:"email,omitempty"`
	IsActive *bool           `json:"is_active,omitempty"`
	Profile  json.RawMessage `json:"profile,omitempty"`
}

// AdminUpdateUser changes an account.
func (c *Client) AdminUpdateUser(ctx context.Context, userID uuid.UUID, req UpdateUserRequest) (*User, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["user_id"] = userID
	var out User
	if err := c.CallJSON(ctx, EndpointAdminUsersUpdate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminToggleUserActive flips an account between active and disabled.
func (c *Client) AdminToggleUserActive(ctx context.Context, userID uuid.UUID) (*User, error) {
	var out User
	if err := c.CallJSON(ctx, EndpointAdminUsersToggleActive, Params{"user_id": userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminResetPassword sets a new password for an account.
func (c *Client) AdminResetPassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	p := Params{"user_id": userID, "new_password": newPassword}
	return c.CallJSON(ctx, EndpointAdminUsersResetPassword, p, nil)
}

// AdminListGroups returns one page of permission groups.
func (c *Client) AdminListGroups(ctx context.Context, page, perPage int) (*UserGroupList, error) {
	var out UserGroupList
	p := Params{"page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointAdminGroupsList, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateGroupRequest describes a new permission group.
type CreateGroupRequest struct {
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Permissions []string    `json:"permissions"`
	ProviderIDs []uuid.UUID `json:"provider_ids,omitempty"`
}

// AdminCreateGroup creates a permission group.
func (c *Client) AdminCreateGroup(ctx context.Context, req CreateGroupRequest) (*UserGroup, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	var out UserGroup
	if err := c.CallJSON(ctx, EndpointAdminGroupsCreate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminGetGroup fetches one group by id.
func (c *Client) AdminGetGroup(ctx context.Context, groupID uuid.UUID) (*UserGroup, error) {
	var out UserGroup
	if err := c.CallJSON(ctx, EndpointAdminGroupsGet, Params{"group_id": groupID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateGroupRequest carries the group fields to change; nil fields stay
// untouched.
type UpdateGroupRequest struct {
	Name        *string     `json:"name,omitempty"`
	Description *string     `json:"description,omitempty"`
	Permissions []string    `json:"permissions,omitempty"`
	ProviderIDs []uuid.UUID `json:"provider_ids,omitempty"`
	IsActive    *bool       `json:"is_active,omitempty"`
}

// AdminUpdateGroup changes a permission group.
func (c *Client) AdminUpdateGroup(ctx context.Context, groupID uuid.UUID, req UpdateGroupRequest) (*UserGroup, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["group_id"] = groupID
	var out UserGroup
	if err := c.CallJSON(ctx, EndpointAdminGroupsUpdate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminDeleteGroup removes a permission group.
func (c *Client) AdminDeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	return c.CallJSON(ctx, EndpointAdminGroupsDelete, Params{"group_id": groupID}, nil)
}

// AdminGroupMembers lists the accounts in a group.
func (c *Client) AdminGroupMembers(ctx context.Context, groupID uuid.UUID) ([]User, error) {
	var out []User
	if err := c.CallJSON(ctx, EndpointAdminGroupsMembers, Params{"group_id": groupID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminAssignUserToGroup adds an account to a group.
func (c *Client) AdminAssignUserToGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	p := Params{"user_id": userID, "group_id": groupID}
	return c.CallJSON(ctx, EndpointAdminGroupsAssignUser, p, nil)
}

// AdminRemoveUserFromGroup removes an account from a group.
func (c *Client) AdminRemoveUserFromGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	p := Params{"user_id": userID, "group_id": groupID}
	return c.CallJSON(ctx, EndpointAdminGroupsRemoveUser, p, nil)
}

// AdminGroupProviders lists the model providers a group grants access to.
func (c *Client) AdminGroupProviders(ctx context.Context, groupID uuid.UUID) ([]Provider, error) {
	var out []Provider
	if err := c.CallJSON(ctx, EndpointAdminGroupsProviders, Params{"group_id": groupID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminAssignProviderToGroup grants a group access to a model provider.
func (c *Client) AdminAssignProviderToGroup(ctx context.Context, groupID, providerID uuid.UUID) error {
	p := Params{"group_id": groupID, "provider_id": providerID}
	return c.CallJSON(ctx, EndpointAdminGroupsAssignProvider, p, nil)
}

// AdminRemoveProviderFromGroup revokes a group's access to a model provider.
func (c *Client) AdminRemoveProviderFromGroup(ctx context.Context, groupID, providerID uuid.UUID) error {
	p := Params{"group_id": groupID, "provider_id": providerID}
	return c.CallJSON(ctx, EndpointAdminGroupsRemoveProvider, p, nil)
}

// AdminListProviders returns one page of all model providers, including
// disabled ones.
func (c *Client) AdminListProviders(ctx context.Context, page, perPage int) (*ProviderList, error) {
	var out ProviderList
	p := Params{"page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointAdminProvidersList, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProviderRequest describes a new model provider.
type CreateProviderRequest struct {
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Enabled       *bool          `json:"enabled,omitempty"`
	APIKey        *string        `json:"api_key,omitempty"`
	BaseURL       *string        `json:"base_url,omitempty"`
	ProxySettings *ProxySettings `json:"proxy_settings,omitempty"`
}

// AdminCreateProvider registers a model provider.
func (c *Client) AdminCreateProvider(ctx context.Context, req CreateProviderRequest) (*Provider, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	var out Provider
	if err := c.CallJSON(ctx, EndpointAdminProvidersCreate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminGetProvider fetches one provider by id, including its key.
func (c *Client) AdminGetProvider(ctx context.Context, providerID uuid.UUID) (*Provider, error) {
	var out Provider
	if err := c.CallJSON(ctx, EndpointAdminProvidersGet, Params{"provider_id": providerID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProviderRequest carries the provider fields to change; nil fields
// stay untouched.
type UpdateProviderRequest struct {
	Name          *string        `json:"name,omitempty"`
	Enabled       *bool          `json:"enabled,omitempty"`
	APIKey        *string        `json:"api_key,omitempty"`
	BaseURL       *string        `json:"base_url,omitempty"`
	ProxySettings *ProxySettings `json:"proxy_settings,omitempty"`
}

// AdminUpdateProvider changes a model provider.
func (c *Client) AdminUpdateProvider(ctx context.Context, providerID uuid.UUID, req UpdateProviderRequest) (*Provider, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["provider_id"] = providerID
	var out Provider
	if err := c.CallJSON(ctx, EndpointAdminProvidersUpdate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminDeleteProvider removes a model provider and its models.
func (c *Client) AdminDeleteProvider(ctx context.Context, providerID uuid.UUID) error {
	return c.CallJSON(ctx, EndpointAdminProvidersDelete, Params{"provider_id": providerID}, nil)
}

// AdminCloneProvider duplicates a provider with its models.
func (c *Client) AdminCloneProvider(ctx context.Context, providerID uuid.UUID) (*Provider, error) {
	var out Provider
	if err := c.CallJSON(ctx, EndpointAdminProvidersClone, Params{"provider_id": providerID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminTestProviderProxy checks a provider's proxy settings for reachability.
func (c *Client) AdminTestProviderProxy(ctx context.Context, providerID uuid.UUID) error {
	return c.CallJSON(ctx, EndpointAdminProvidersTestProxy, Params{"provider_id": providerID}, nil)
}

// CreateModelRequest describes a new model under a provider.
type CreateModelRequest struct {
	Name         string          `json:"name"`
	Alias        string          `json:"alias"`
	Description  *string         `json:"description,omitempty"`
	Enabled      *bool           `json:"enabled,omitempty"`
	Capabilities json.RawMessage `json:"capabilities,omitempty"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
}

// AdminCreateModel registers a model under a provider.
func (c *Client) AdminCreateModel(ctx context.Context, providerID uuid.UUID, req CreateModelRequest) (*Model, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["provider_id"] = providerID
	var out Model
	if err := c.CallJSON(ctx, EndpointAdminModelsCreate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminGetModel fetches one model by id.
func (c *Client) AdminGetModel(ctx context.Context, modelID uuid.UUID) (*Model, error) {
	var out Model
	if err := c.CallJSON(ctx, EndpointAdminModelsGet, Params{"model_id": modelID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateModelRequest carries the model fields to change; nil fields stay
// untouched.
type UpdateModelRequest struct {
	Name         *string         `json:"name,omitempty"`
	Alias        *string         `json:"alias,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Enabled      *bool           `json:"enabled,omitempty"`
	Capabilities json.RawMessage `json:"capabilities,omitempty"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
}

// AdminUpdateModel changes a model.
func (c *Client) AdminUpdateModel(ctx context.Context, modelID uuid.UUID, req UpdateModelRequest) (*Model, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["model_id"] = modelID
	var out Model
	if err := c.CallJSON(ctx, EndpointAdminModelsUpdate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminDeleteModel removes a model.
func (c *Client) AdminDeleteModel(ctx context.Context, modelID uuid.UUID) error {
	return c.CallJSON(ctx, EndpointAdminModelsDelete, Params{"model_id": modelID}, nil)
}

// AdminUserRegistrationStatus returns the registration flag through the
// admin surface.
func (c *Client) AdminUserRegistrationStatus(ctx context.Context) (*RegistrationStatus, error) {
	var out RegistrationStatus
	if err := c.CallJSON(ctx, EndpointAdminConfigRegistrationGet, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminSetUserRegistration opens or closes self-registration.
func (c *Client) AdminSetUserRegistration(ctx context.Context, enabled bool) error {
	return c.CallJSON(ctx, EndpointAdminConfigRegistrationSet, Params{"enabled": enabled}, nil)
}

// AdminDefaultLanguage returns the default language through the admin surface.
func (c *Client) AdminDefaultLanguage(ctx context.Context) (*DefaultLanguage, error) {
	var out DefaultLanguage
	if err := c.CallJSON(ctx, EndpointAdminConfigLanguageGet, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminSetDefaultLanguage changes the instance default language.
func (c *Client) AdminSetDefaultLanguage(ctx context.Context, language string) error {
	return c.CallJSON(ctx, EndpointAdminConfigLanguageSet, Params{"language": language}, nil)
}

// AdminProxySettings returns the instance-wide outbound proxy configuration.
func (c *Client) AdminProxySettings(ctx context.Context) (*ProxySettings, error) {
	var out ProxySettings
	if err := c.CallJSON(ctx, EndpointAdminConfigProxyGet, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminSetProxySettings rewrites the instance-wide proxy configuration.
func (c *Client) AdminSetProxySettings(ctx context.Context, settings ProxySettings) error {
	p, err := asParams(settings)
	if err != nil {
		return err
	}
	return c.CallJSON(ctx, EndpointAdminConfigProxySet, p, nil)
}
