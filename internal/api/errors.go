package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the server. Message and Code come from
// the structured error body when the server sent one.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, HTTP %d)", msg, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
}

// MissingParamError reports a path capture with no matching call parameter.
// It is returned before any request is made.
type MissingParamError struct {
	Endpoint Endpoint
	Param    string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing path parameter %q for %s", e.Param, string(e.Endpoint))
}

// errorBody is the wire shape of a structured server error.
type errorBody struct {
	Error     string          `json:"error"`
	ErrorCode string          `json:"error_code"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// parseError classifies a non-2xx response body. Structured bodies keep the
// server's message and code. A 403 without one collapses to a generic
// permission error; anything else falls back to the raw body text.
func parseError(status int, body []byte) *APIError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return &APIError{Status: status, Code: eb.ErrorCode, Message: eb.Error, Details: eb.Details}
	}
	if status == http.StatusForbidden {
		return &APIError{Status: status, Message: "Permission denied"}
	}
	return &APIError{Status: status, Message: strings.TrimSpace(string(body))}
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return statusIs(err, http.StatusNotFound)
}

// IsPermissionDenied reports whether err is a 403 from the server.
func IsPermissionDenied(err error) bool {
	return statusIs(err, http.StatusForbidden)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return statusIs(err, http.StatusUnauthorized)
}

func statusIs(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
