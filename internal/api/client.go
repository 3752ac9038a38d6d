package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
)

// TokenSource supplies the bearer token attached to authenticated calls.
// Token reports false when no session is active.
type TokenSource interface {
	Token() (string, bool)
}

// Client dispatches typed calls to a ziee server. The zero value is not
// usable; construct one with NewClient or NewClientWithResolver.
type Client struct {
	resolveBase func(ctx context.Context) (string, error)
	httpClient  *http.Client
	tokens      TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource attaches bearer tokens from ts to every call that has one.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	return NewClientWithResolver(func(context.Context) (string, error) {
		return base, nil
	}, opts...)
}

// NewClientWithResolver creates a client whose base URL is produced by
// resolve on first use. The resolver must be safe for concurrent callers;
// every call shares whatever it returns.
func NewClientWithResolver(resolve func(ctx context.Context) (string, error), opts ...Option) *Client {
	c := &Client{
		resolveBase: resolve,
		// No client-level timeout: streaming responses stay open until the
		// server finishes or the context is cancelled.
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResultKind classifies a response by its Content-Type.
type ResultKind int

const (
	// KindJSON marks an application/json response.
	KindJSON ResultKind = iota
	// KindText marks text, XML, javascript and any unrecognized type.
	KindText
	// KindBlob marks image, video, audio, PDF and octet-stream responses,
	// kept as opaque bytes.
	KindBlob
)

// Result is one successful response, classified by the server's Content-Type.
type Result struct {
	Kind        ResultKind
	ContentType string
	Body        []byte
}

// JSON decodes the body into v. Empty bodies and nil v are accepted and leave
// v untouched, so deletes returning 204 decode cleanly.
func (r *Result) JSON(v any) error {
	if len(r.Body) == 0 || v == nil {
		return nil
	}
	if r.Kind != KindJSON {
		return fmt.Errorf("expected JSON response, got %s", r.ContentType)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Text returns the body as a string.
func (r *Result) Text() string {
	return string(r.Body)
}

// Call dispatches one request and classifies the response. Path captures in
// the endpoint are filled from params; the remaining keys become the query
// string on GET requests or the JSON body otherwise. A capture with no
// matching parameter fails before any request is made. Calls are single
// attempts: no retries, no client-side deadline beyond ctx.
func (c *Client) Call(ctx context.Context, endpoint Endpoint, params Params) (*Result, error) {
	resp, err := c.send(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, body)
	}
	return classify(resp.Header.Get("Content-Type"), body), nil
}

// CallJSON dispatches one request and decodes the JSON response into out.
// Pass a nil out to discard the response body.
func (c *Client) CallJSON(ctx context.Context, endpoint Endpoint, params Params, out any) error {
	res, err := c.Call(ctx, endpoint, params)
	if err != nil {
		return err
	}
	return res.JSON(out)
}

// CallText dispatches one request and returns the response body as text.
func (c *Client) CallText(ctx context.Context, endpoint Endpoint, params Params) (string, error) {
	res, err := c.Call(ctx, endpoint, params)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// CallBlob dispatches one request and returns the raw response bytes along
// with their content type.
func (c *Client) CallBlob(ctx context.Context, endpoint Endpoint, params Params) ([]byte, string, error) {
	res, err := c.Call(ctx, endpoint, params)
	if err != nil {
		return nil, "", err
	}
	return res.Body, res.ContentType, nil
}

func (c *Client) send(ctx context.Context, endpoint Endpoint, params Params) (*http.Response, error) {
	req, err := c.newRequest(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	slog.Debug("api call", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "elapsed", time.Since(start))
	return resp, nil
}

// newRequest assembles the HTTP request for one call. Capture substitution
// runs before base URL resolution so a missing parameter never triggers
// discovery probes.
func (c *Client) newRequest(ctx context.Context, endpoint Endpoint, params Params) (*http.Request, error) {
	path, consumed, err := endpoint.buildPath(params)
	if err != nil {
		return nil, err
	}

	base, err := c.resolveBase(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving server address: %w", err)
	}

	method := endpoint.Method()
	rawURL := base + path

	var bodyReader io.Reader
	isJSON := false
	if method == http.MethodGet {
		if q := encodeQuery(params, consumed); q != "" {
			rawURL += "?" + q
		}
	} else if params != nil {
		data, err := json.Marshal(bodyParams(params, consumed))
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		isJSON = true
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuth(req)
	return req, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token, ok := c.tokens.Token(); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func classify(contentType string, body []byte) *Result {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}
	res := &Result{ContentType: contentType, Body: body}
	switch {
	case mediaType == "application/json":
		res.Kind = KindJSON
	case isBlobType(mediaType):
		res.Kind = KindBlob
	default:
		// text/*, XML, javascript and anything unrecognized read as text.
		res.Kind = KindText
	}
	return res
}

func isBlobType(mediaType string) bool {
	switch {
	case strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "video/"),
		strings.HasPrefix(mediaType, "audio/"):
		return true
	}
	return mediaType == "application/pdf" || mediaType == "application/octet-stream"
}

// asParams flattens a JSON-tagged struct into call parameters so typed
// request types and hand-built maps go through the same dispatch path.
func asParams(v any) (Params, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}
	return p, nil
}
