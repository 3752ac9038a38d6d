package api

import (
	"context"
	"encoding/json"
)

// HubVersion identifies the catalog snapshot the server is serving.
type HubVersion struct {
	HubVersion string `json:"hub_version"`
}

// HubData is the catalog of shared assistants and model definitions the
// server mirrors from the public hub. The payloads are kept raw; their
// shape is owned by the hub, not by this client.
type HubData struct {
	Assistants []json.RawMessage `json:"assistants"`
	Models     []json.RawMessage `json:"models"`
	HubVersion string            `json:"hub_version"`
	LastUpdate *string           `json:"last_update,omitempty"`
}

// GetHubData returns the cached hub catalog.
func (c *Client) GetHubData(ctx context.Context) (*HubData, error) {
	var out HubData
	if err := c.CallJSON(ctx, EndpointHubData, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshHub asks the server to re-fetch the hub catalog and returns the
// fresh copy.
func (c *Client) RefreshHub(ctx context.Context) (*HubData, error) {
	var out HubData
	if err := c.CallJSON(ctx, EndpointHubRefresh, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetHubVersion returns the catalog version without the catalog itself.
func (c *Client) GetHubVersion(ctx context.Context) (*HubVersion, error) {
	var out HubVersion
	if err := c.CallJSON(ctx, EndpointHubVersion, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health pings the server and returns its plain-text status line.
func (c *Client) Health(ctx context.Context) (string, error) {
	return c.CallText(ctx, EndpointHealth, nil)
}
