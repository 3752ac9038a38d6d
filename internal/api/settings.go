package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UserSetting is one key/value pair of per-user preferences. Values are
// free-form JSON owned by the client that wrote them.
type UserSetting struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ListSettings returns every setting of the current user.
func (c *Client) ListSettings(ctx context.Context) ([]UserSetting, error) {
	var out []UserSetting
	if err := c.CallJSON(ctx, EndpointSettingsList, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSetting returns one setting by key.
func (c *Client) GetSetting(ctx context.Context, key string) (*UserSetting, error) {
	var out UserSetting
	if err := c.CallJSON(ctx, EndpointSettingsGet, Params{"key": key}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetSetting writes one setting, creating or replacing it.
func (c *Client) SetSetting(ctx context.Context, key string, value any) (*UserSetting, error) {
	var out UserSetting
	p := Params{"key": key, "value": value}
	if err := c.CallJSON(ctx, EndpointSettingsSet, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSetting removes one setting by key.
func (c *Client) DeleteSetting(ctx context.Context, key string) error {
	return c.CallJSON(ctx, EndpointSettingsDelete, Params{"key": key}, nil)
}

// DeleteAllSettings removes every setting of the current user.
func (c *Client) DeleteAllSettings(ctx context.Context) error {
	return c.CallJSON(ctx, EndpointSettingsDeleteAll, nil, nil)
}
