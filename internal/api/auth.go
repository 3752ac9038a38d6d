package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is an account as the server reports it.
type User struct {
	ID          uuid.UUID       `json:"id"`
	Username    string          `json:"username"`
	Emails      []UserEmail     `json:"emails"`
	Profile     json.RawMessage `json:"profile,omitempty"`
	IsActive    bool            `json:"is_active"`
	IsProtected bool            `json:"is_protected"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Groups      []UserGroup     `json:"groups"`
}

// UserEmail is one address attached to a user.
type UserEmail struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// UserGroup is a permission group. Permissions are namespaced action names
// like "users::read".
type UserGroup struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Permissions []string    `json:"permissions"`
	ProviderIDs []uuid.UUID `json:"provider_ids"`
	IsProtected bool        `json:"is_protected"`
	IsActive    bool        `json:"is_active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// InitStatus reports whether the server still needs first-run setup.
type InitStatus struct {
	NeedsSetup bool `json:"needs_setup"`
	IsDesktop  bool `json:"is_desktop"`
}

// AuthSession is the result of a successful login, registration or setup.
type AuthSession struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// InitStatus checks whether the server needs first-run setup. It is a public
// endpoint and works without a session.
func (c *Client) InitStatus(ctx context.Context) (*InitStatus, error) {
	var out InitStatus
	if err := c.CallJSON(ctx, EndpointAuthInit, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Setup creates the first admin account on a fresh server.
func (c *Client) Setup(ctx context.Context, username, email, password string) (*AuthSession, error) {
	var out AuthSession
	p := Params{"username": username, "email": email, "password": password}
	if err := c.CallJSON(ctx, EndpointAuthSetup, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates with a username or email address.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*AuthSession, error) {
	var out AuthSession
	p := Params{"username_or_email": usernameOrEmail, "password": password}
	if err := c.CallJSON(ctx, EndpointAuthLogin, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account when the server allows self-registration.
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthSession, error) {
	var out AuthSession
	p := Params{"username": username, "email": email, "password": password}
	if err := c.CallJSON(ctx, EndpointAuthRegister, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the current session token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.CallJSON(ctx, EndpointAuthLogout, nil, nil)
}

// Me returns the account owning the current session.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.CallJSON(ctx, EndpointAuthMe, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
