// Package session persists the active login between CLI invocations. The
// on-disk shape matches the desktop app's persisted auth store
// ({"state":{"token":…}}), so both front ends can read the same file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store holds one session. It satisfies the dispatcher's TokenSource.
type Store struct {
	path string

	mu              sync.Mutex
	state           sessionState
	keychainChecked bool
}

type persistedSession struct {
	State   sessionState `json:"state"`
	Version int          `json:"version"`
}

type sessionState struct {
	Token string          `json:"token,omitempty"`
	User  json.RawMessage `json:"user,omitempty"`
}

// Open reads the session file at path. A missing file is an empty session;
// an unreadable one is treated the same after a warning.
func Open(path string) *Store {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("could not read session file", "path", path, "error", err)
		}
		return s
	}
	var p persistedSession
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("could not parse session file", "path", path, "error", err)
		return s
	}
	s.state = p.State
	return s
}

// Token reports the active bearer token. When the file holds none it checks
// the platform keychain once.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token == "" && !s.keychainChecked {
		s.keychainChecked = true
		if tok, err := keychainToken(); err == nil && tok != "" {
			s.state.Token = tok
		}
	}
	return s.state.Token, s.state.Token != ""
}

// User returns the user snapshot captured at login, nil when logged out.
func (s *Store) User() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User
}

// Save persists a new session, replacing any previous one.
func (s *Store) Save(token string, user json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sessionState{Token: token, User: user}
	if err := s.write(); err != nil {
		return err
	}
	if err := keychainSave(token); err != nil {
		slog.Debug("keychain store skipped", "error", err)
	}
	return nil
}

// Clear forgets the session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sessionState{}
	if err := s.write(); err != nil {
		return err
	}
	if err := keychainClear(); err != nil {
		slog.Debug("keychain clear skipped", "error", err)
	}
	return nil
}

func (s *Store) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	data, err := json.MarshalIndent(persistedSession{State: s.state}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
