package api

import "context"

// RegistrationStatus reports whether self-registration is open.
type RegistrationStatus struct {
	Enabled bool `json:"enabled"`
}

// DefaultLanguage is the instance-wide UI language fallback.
type DefaultLanguage struct {
	Language string `json:"language"`
}

// UserRegistrationStatus returns the registration flag; no auth required.
func (c *Client) UserRegistrationStatus(ctx context.Context) (*RegistrationStatus, error) {
	var out RegistrationStatus
	if err := c.CallJSON(ctx, EndpointConfigUserRegistration, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDefaultLanguage returns the default language; no auth required.
func (c *Client) GetDefaultLanguage(ctx context.Context) (*DefaultLanguage, error) {
	var out DefaultLanguage
	if err := c.CallJSON(ctx, EndpointConfigDefaultLanguage, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
