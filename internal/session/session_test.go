package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// stubKeychain keeps tests away from the real platform keychain.
func stubKeychain(t *testing.T) {
	t.Helper()
	origToken, origSave, origClear := keychainToken, keychainSave, keychainClear
	keychainToken = func() (string, error) { return "", nil }
	keychainSave = func(string) error { return nil }
	keychainClear = func() error { return nil }
	t.Cleanup(func() {
		keychainToken, keychainSave, keychainClear = origToken, origSave, origClear
	})
}

func TestStore_EmptyWhenMissing(t *testing.T) {
	stubKeychain(t)
	s := Open(filepath.Join(t.TempDir(), "session.json"))
	if tok, ok := s.Token(); ok || tok != "" {
		t.Errorf("Token() = %q, %v, want empty", tok, ok)
	}
	if s.User() != nil {
		t.Errorf("User() = %s, want nil", s.User())
	}
}

func TestStore_SaveAndReopen(t *testing.T) {
	stubKeychain(t)
	path := filepath.Join(t.TempDir(), "session.json")
	user := json.RawMessage(`{"id":"u1","username":"alice"}`)

	s := Open(path)
	if err := s.Save("tok-abc", user); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reopened := Open(path)
	tok, ok := reopened.Token()
	if !ok || tok != "tok-abc" {
		t.Errorf("Token() = %q, %v", tok, ok)
	}
	var u map[string]string
	if err := json.Unmarshal(reopened.User(), &u); err != nil {
		t.Fatalf("decoding user: %v", err)
	}
	if u["username"] != "alice" {
		t.Errorf("username = %q", u["username"])
	}
}

func TestStore_FileShapeAndMode(t *testing.T) {
	stubKeychain(t)
	path := filepath.Join(t.TempDir(), "session.json")
	if err := Open(path).Save("tok", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading session file: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parsing session file: %v", err)
	}
	if _, ok := raw["state"]; !ok {
		t.Errorf("file missing state wrapper: %s", data)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("file mode = %o, want 600", perm)
		}
	}
}

func TestStore_Clear(t *testing.T) {
	stubKeychain(t)
	path := filepath.Join(t.TempDir(), "session.json")
	s := Open(path)
	if err := s.Save("tok", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.Token(); ok {
		t.Error("token survived Clear")
	}
	if _, ok := Open(path).Token(); ok {
		t.Error("token survived Clear on disk")
	}
}

func TestStore_CorruptFile(t *testing.T) {
	stubKeychain(t)
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if tok, ok := Open(path).Token(); ok {
		t.Errorf("Token() = %q from corrupt file", tok)
	}
}

func TestStore_CreatesParentDir(t *testing.T) {
	stubKeychain(t)
	path := filepath.Join(t.TempDir(), "nested", "deeper", "session.json")
	if err := Open(path).Save("tok", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("session file not created: %v", err)
	}
}
