package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// File is stored file metadata.
type File struct {
	ID                 uuid.UUID       `json:"id"`
	UserID             uuid.UUID       `json:"user_id"`
	Filename           string          `json:"filename"`
	FileSize           int64           `json:"file_size"`
	MimeType           *string         `json:"mime_type,omitempty"`
	Checksum           *string         `json:"checksum,omitempty"`
	ProjectID          *uuid.UUID      `json:"project_id,omitempty"`
	ThumbnailCount     int             `json:"thumbnail_count"`
	PageCount          int             `json:"page_count"`
	ProcessingMetadata json.RawMessage `json:"processing_metadata,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// UploadedFile wraps the file object an upload endpoint returns.
type UploadedFile struct {
	File File `json:"file"`
}

// FileList is one page of files.
type FileList struct {
	Files   []File `json:"files"`
	Total   int64  `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// DownloadToken authorizes one unauthenticated download, for handing a URL
// to an external viewer.
type DownloadToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadFiles sends files to the general upload endpoint, one request per
// call carrying all of them. Progress and completion flow through cb.
func (c *Client) UploadFiles(ctx context.Context, files []UploadFile, cb UploadCallbacks) (*UploadedFile, error) {
	res, err := c.Upload(ctx, EndpointFilesUpload, nil, files, cb)
	if err != nil {
		return nil, err
	}
	var out UploadedFile
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadProjectFile attaches files to a project.
func (c *Client) UploadProjectFile(ctx context.Context, projectID uuid.UUID, files []UploadFile, cb UploadCallbacks) (*UploadedFile, error) {
	res, err := c.Upload(ctx, EndpointProjectFilesUpload, Params{"id": projectID}, files, cb)
	if err != nil {
		return nil, err
	}
	var out UploadedFile
	if err := res.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFile fetches file metadata by id.
func (c *Client) GetFile(ctx context.Context, id uuid.UUID) (*File, error) {
	var out File
	if err := c.CallJSON(ctx, EndpointFilesGet, Params{"id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteFile removes a file and its derived artifacts.
func (c *Client) DeleteFile(ctx context.Context, id uuid.UUID) error {
	return c.CallJSON(ctx, EndpointFilesDelete, Params{"id": id}, nil)
}

// DownloadFile returns the raw file content and its content type.
func (c *Client) DownloadFile(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	return c.CallBlob(ctx, EndpointFilesDownload, Params{"id": id})
}

// GenerateDownloadToken mints a short-lived token for unauthenticated
// download of one file.
func (c *Client) GenerateDownloadToken(ctx context.Context, id uuid.UUID) (*DownloadToken, error) {
	var out DownloadToken
	if err := c.CallJSON(ctx, EndpointFilesDownloadToken, Params{"id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FilePreview returns a rendered preview image for the file, when the server
// has one.
func (c *Client) FilePreview(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	return c.CallBlob(ctx, EndpointFilesPreview, Params{"id": id})
}

// ListProjectFiles returns one page of a project's files.
func (c *Client) ListProjectFiles(ctx context.Context, projectID uuid.UUID, page, perPage int) (*FileList, error) {
	var out FileList
	p := Params{"id": projectID, "page": page, "per_page": perPage}
	if err := c.CallJSON(ctx, EndpointProjectFilesList, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessageFiles returns the files attached to a message.
func (c *Client) ListMessageFiles(ctx context.Context, messageID uuid.UUID) ([]File, error) {
	var out []File
	if err := c.CallJSON(ctx, EndpointMessageFilesList, Params{"id": messageID}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnlinkMessageFile detaches a file from a message without deleting it.
func (c *Client) UnlinkMessageFile(ctx context.Context, fileID, messageID uuid.UUID) error {
	p := Params{"file_id": fileID, "message_id": messageID}
	return c.CallJSON(ctx, EndpointMessageFileUnlink, p, nil)
}
