package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ziee-ai/ziee-go/internal/api"
	"github.com/ziee-ai/ziee-go/internal/config"
	"github.com/ziee-ai/ziee-go/internal/discover"
	"github.com/ziee-ai/ziee-go/internal/session"
)

// serverOverride pins the server address for one invocation. Bound to
// --server.
var serverOverride string

// staticToken satisfies api.TokenSource for a token fixed by configuration.
type staticToken string

func (t staticToken) Token() (string, bool) { return string(t), t != "" }

func newResolver(cfg config.Config) *discover.Resolver {
	baseURL := cfg.Server.BaseURL
	if serverOverride != "" {
		baseURL = serverOverride
	}
	return discover.New(discover.Options{
		BaseURL:      baseURL,
		ProbeTimeout: time.Duration(cfg.Server.ProbeTimeoutMS) * time.Millisecond,
	})
}

func sessionPath(cfg config.Config) string {
	return filepath.Join(cfg.Storage.DataDir, "session.json")
}

// newAPIClient builds a client against the configured or discovered server,
// authenticated from ZIEE_TOKEN when set and the session store otherwise.
// It is a var so tests can substitute a client pointed at a fake server.
var newAPIClient = func() (*api.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var tokens api.TokenSource = session.Open(sessionPath(cfg))
	if cfg.Auth.Token != "" {
		tokens = staticToken(cfg.Auth.Token)
	}

	return api.NewClientWithResolver(newResolver(cfg).Resolve, api.WithTokenSource(tokens)), nil
}

func saveSession(sess *api.AuthSession) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	if err := session.Open(sessionPath(cfg)).Save(sess.Token, user); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func clearSession() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return session.Open(sessionPath(cfg)).Clear()
}
