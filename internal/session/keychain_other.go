//go:build !darwin

package session

// Non-darwin platforms keep the token in the session file only. Vars so
// tests can stub them out.

var keychainToken = func() (string, error) { return "", nil }

var keychainSave = func(string) error { return nil }

var keychainClear = func() error { return nil }
