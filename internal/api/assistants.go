package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Assistant is a reusable system-prompt-plus-parameters preset.
type Assistant struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Instructions *string         `json:"instructions,omitempty"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	CreatedBy    *uuid.UUID      `json:"created_by,omitempty"`
	IsTemplate   bool            `json:"is_template"`
	IsDefault    bool            `json:"is_default"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AssistantList is one page of assistants.
type AssistantList struct {
	Assistants []Assistant `json:"assistants"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
}

// ListAssistants returns one page of assistants visible to the user.
func (c *Client) ListAssistants(ctx context.Context, page, perPage int) (*AssistantList, error) {
	var out AssistantList
	p := Params{"page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointAssistantsList, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AssistantRequest carries the writable fields of an assistant.
type AssistantRequest struct {
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	Instructions *string         `json:"instructions,omitempty"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	IsActive     *bool           `json:"is_active,omitempty"`
}

// CreateAssistant creates a personal assistant preset.
func (c *Client) CreateAssistant(ctx context.Context, req AssistantRequest) (*Assistant, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	var out Assistant
	if err := c.CallJSON(ctx, EndpointAssistantsCreate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAssistant fetches one assistant by id.
func (c *Client) GetAssistant(ctx context.Context, id uuid.UUID) (*Assistant, error) {
	var out Assistant
	if err := c.CallJSON(ctx, EndpointAssistantsGet, Params{"assistant_id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAssistant rewrites an assistant's fields.
func (c *Client) UpdateAssistant(ctx context.Context, id uuid.UUID, req AssistantRequest) (*Assistant, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["assistant_id"] = id
	var out Assistant
	if err := c.CallJSON(ctx, EndpointAssistantsUpdate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAssistant removes an assistant.
func (c *Client) DeleteAssistant(ctx context.Context, id uuid.UUID) error {
	return c.CallJSON(ctx, EndpointAssistantsDelete, Params{"assistant_id": id}, nil)
}

// DefaultAssistant returns the assistant new conversations start with.
func (c *Client) DefaultAssistant(ctx context.Context) (*Assistant, error) {
	var out Assistant
	if err := c.CallJSON(ctx, EndpointAssistantsDefault, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
