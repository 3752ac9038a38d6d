package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Provider is a model provider as visible to the current user. API keys are
// never present outside admin responses.
type Provider struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Type          string         `json:"type"`
	Enabled       bool           `json:"enabled"`
	APIKey        *string        `json:"api_key,omitempty"`
	BaseURL       *string        `json:"base_url,omitempty"`
	BuiltIn       bool           `json:"built_in"`
	ProxySettings *ProxySettings `json:"proxy_settings,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ProxySettings is an outbound proxy configuration.
type ProxySettings struct {
	Enabled  bool   `json:"enabled"`
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	NoProxy  string `json:"no_proxy,omitempty"`
}

// Model is one model offered by a provider.
type Model struct {
	ID           uuid.UUID       `json:"id"`
	ProviderID   uuid.UUID       `json:"provider_id"`
	Name         string          `json:"name"`
	Alias        string          `json:"alias"`
	Description  *string         `json:"description,omitempty"`
	Enabled      bool            `json:"enabled"`
	IsDeprecated bool            `json:"is_deprecated"`
	IsActive     bool            `json:"is_active"`
	Capabilities json.RawMessage `json:"capabilities,omitempty"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ListProviders returns the providers enabled for the current user.
func (c *Client) ListProviders(ctx context.Context) ([]Provider, error) {
	var out []Provider
	if err := c.CallJSON(ctx, EndpointProvidersList, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProviderModels returns the enabled models of one provider.
func (c *Client) ListProviderModels(ctx context.Context, providerID uuid.UUID) ([]Model, error) {
	var out []Model
	if err := c.CallJSON(ctx, EndpointProviderModelsList, Params{"provider_id": providerID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
