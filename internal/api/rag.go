package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RAGProvider is a retrieval backend instances can be created from.
type RAGProvider struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Enabled   bool      `json:"enabled"`
	BaseURL   *string   `json:"base_url,omitempty"`
	BuiltIn   bool      `json:"built_in"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RAGInstance is one user-scoped retrieval index.
type RAGInstance struct {
	ID               uuid.UUID       `json:"id"`
	ProviderID       uuid.UUID       `json:"provider_id"`
	UserID           *uuid.UUID      `json:"user_id,omitempty"`
	ProjectID        *uuid.UUID      `json:"project_id,omitempty"`
	Name             string          `json:"name"`
	Alias            string          `json:"alias"`
	Description      *string         `json:"description,omitempty"`
	Enabled          bool            `json:"enabled"`
	IsActive         bool            `json:"is_active"`
	IsSystem         bool            `json:"is_system"`
	EngineType       string          `json:"engine_type"`
	EngineSettings   json.RawMessage `json:"engine_settings,omitempty"`
	EmbeddingModelID *uuid.UUID      `json:"embedding_model_id,omitempty"`
	LLMModelID       *uuid.UUID      `json:"llm_model_id,omitempty"`
	Parameters       json.RawMessage `json:"parameters,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// RAGInstanceList is one page of instances.
type RAGInstanceList struct {
	Instances []RAGInstance `json:"instances"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	PerPage   int           `json:"per_page"`
}

// RAGFileList is one page of files inside an instance.
type RAGFileList struct {
	Files   []File `json:"files"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// ListRAGProviders returns the providers the user may create instances from.
func (c *Client) ListRAGProviders(ctx context.Context) ([]RAGProvider, error) {
	var out []RAGProvider
	if err := c.CallJSON(ctx, EndpointRAGListProviders, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRAGInstances returns one page of the user's instances.
func (c *Client) ListRAGInstances(ctx context.Context, page, perPage int) (*RAGInstanceList, error) {
	var out RAGInstanceList
	p := Params{"page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointRAGListInstances, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateRAGInstanceRequest names a new instance under a provider.
type CreateRAGInstanceRequest struct {
	Name        string  `json:"name"`
	Alias       string  `json:"alias"`
	Description *string `json:"description,omitempty"`
}

// CreateRAGInstance creates an instance of the given provider.
func (c *Client) CreateRAGInstance(ctx context.Context, providerID uuid.UUID, req CreateRAGInstanceRequest) (*RAGInstance, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["provider_id"] = providerID
	var out RAGInstance
	if err := c.CallJSON(ctx, EndpointRAGCreateInstance, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRAGInstance fetches one instance by id.
func (c *Client) GetRAGInstance(ctx context.Context, instanceID uuid.UUID) (*RAGInstance, error) {
	var out RAGInstance
	if err := c.CallJSON(ctx, EndpointRAGGetInstance, Params{"instance_id": instanceID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRAGInstanceRequest carries the fields to change; nil fields stay
// untouched.
type UpdateRAGInstanceRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// UpdateRAGInstance changes an instance's metadata.
func (c *Client) UpdateRAGInstance(ctx context.Context, instanceID uuid.UUID, req UpdateRAGInstanceRequest) (*RAGInstance, error) {
	p, err := asParams(req)
	if err != nil {
		return nil, err
	}
	p["instance_id"] = instanceID
	var out RAGInstance
	if err := c.CallJSON(ctx, EndpointRAGUpdateInstance, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRAGInstance removes an instance and its indexed files.
func (c *Client) DeleteRAGInstance(ctx context.Context, instanceID uuid.UUID) error {
	return c.CallJSON(ctx, EndpointRAGDeleteInstance, Params{"instance_id": instanceID}, nil)
}

// ListRAGFiles returns one page of an instance's files.
func (c *Client) ListRAGFiles(ctx context.Context, instanceID uuid.UUID, page, perPage int) (*RAGFileList, error) {
	var out RAGFileList
	p := Params{"instance_id": instanceID, "page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointRAGListInstanceFiles, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadRAGFiles adds files to an instance for indexing.
func (c *Client) UploadRAGFiles(ctx context.Context, instanceID uuid.UUID, files []UploadFile, cb UploadCallbacks) (*UploadedFile, error) {
	res, err := c.Upload(ctx, EndpointRAGUploadFile, Params{"instance_id": instanceID}, files, cb)
	if err != nil {
		return nil, err
	}
	var out UploadedFile
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRAGFile removes one file from an instance.
func (c *Client) DeleteRAGFile(ctx context.Context, instanceID, fileID uuid.UUID) error {
	p := Params{"instance_id": instanceID, "file_id": fileID}
	return c.CallJSON(ctx, EndpointRAGDeleteFile, p, nil)
}
