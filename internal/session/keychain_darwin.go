//go:build darwin

package session

import (
	"os/exec"
	"strings"
)

const (
	keychainService = "ziee"
	keychainAccount = "session_token"
)

// Keychain access goes through the security(1) CLI, same as the desktop
// app. Vars so tests can stub them out.
var keychainToken = func() (string, error) {
	out, err := exec.Command(
		"security", "find-generic-password",
		"-s", keychainService,
		"-a", keychainAccount,
		"-w",
	).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

var keychainSave = func(token string) error {
	if token == "" {
		return keychainClear()
	}
	return exec.Command(
		"security", "add-generic-password",
		"-U",
		"-s", keychainService,
		"-a", keychainAccount,
		"-w", token,
	).Run()
}

var keychainClear = func() error {
	return exec.Command(
		"security", "delete-generic-password",
		"-s", keychainService,
		"-a", keychainAccount,
	).Run()
}
