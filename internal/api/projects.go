package api

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Project groups conversations and documents.
type Project struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	IsPrivate         bool      `json:"is_private"`
	DocumentCount     *int64    `json:"document_count,omitempty"`
	ConversationCount *int64    `json:"conversation_count,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProjectList is one page of projects.
type ProjectList struct {
	Projects []Project `json:"projects"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"per_page"`
}

// ListProjects returns one page of the user's projects.
func (c *Client) ListProjects(ctx context.Context, page, perPage int) (*ProjectList, error) {
	var out ProjectList
	p := Params{"page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointProjectsList, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProjectRequest names a new project.
type CreateProjectRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsPrivate   bool    `json:"is_private"`
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	var out Project
	if err := c.CallJSON(ctx, EndpointProjectsCreate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProject fetches one project by id.
func (c *Client) GetProject(ctx context.Context, id uuid.UUID) (*Project, error) {
	var out Project
	if err := c.CallJSON(ctx, EndpointProjectsGet, Params{"project_id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProjectRequest carries the fields to change; nil fields stay
// untouched.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPrivate   *bool   `json:"is_private,omitempty"`
}

// UpdateProject changes a project's metadata.
func (c *Client) UpdateProject(ctx context.Context, id uuid.UUID, req UpdateProjectRequest) (*Project, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["project_id"] = id
	var out Project
	if err := c.CallJSON(ctx, EndpointProjectsUpdate, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject removes a project. Conversations linked to it survive.
func (c *Client) DeleteProject(ctx context.Context, id uuid.UUID) error {
	return c.CallJSON(ctx, EndpointProjectsDelete, Params{"project_id": id}, nil)
}

// LinkConversation attaches a conversation to a project.
func (c *Client) LinkConversation(ctx context.Context, projectID, conversationID uuid.UUID) error {
	p := Params{"project_id": projectID, "conversation_id": conversationID}
	return c.CallJSON(ctx, EndpointProjectsLinkConversation, p, nil)
}

// UnlinkConversation detaches a conversation from a project.
func (c *Client) UnlinkConversation(ctx context.Context, projectID, conversationID uuid.UUID) error {
	p := Params{"project_id": projectID, "conversation_id": conversationID}
	return c.CallJSON(ctx, EndpointProjectsUnlinkConversation, p, nil)
}
