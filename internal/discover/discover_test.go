package discover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func clearPortEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ZIEE_PORT", "")
	t.Setenv("PORT", "")
}

func TestResolve_ExplicitBaseURL(t *testing.T) {
	clearPortEnv(t)
	r := New(Options{BaseURL: "http://ziee.internal:8080/"})

	url, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://ziee.internal:8080" {
		t.Errorf("url = %q", url)
	}
}

func TestResolve_EnvPort(t *testing.T) {
	clearPortEnv(t)
	t.Setenv("ZIEE_PORT", "8123")

	url, err := New(Options{}).Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://127.0.0.1:8123" {
		t.Errorf("url = %q", url)
	}
}

func TestResolve_PortFallback(t *testing.T) {
	clearPortEnv(t)
	t.Setenv("PORT", "9000")

	url, err := New(Options{}).Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "http://127.0.0.1:9000" {
		t.Errorf("url = %q", url)
	}
}

func TestResolve_InvalidEnvPort(t *testing.T) {
	clearPortEnv(t)
	t.Setenv("ZIEE_PORT", "not-a-port")

	if _, err := New(Options{}).Resolve(context.Background()); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestResolve_ProbesDesktopPort(t *testing.T) {
	clearPortEnv(t)
	probes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes++
		if r.URL.Path != "/health" {
			t.Errorf("probe path = %q", r.URL.Path)
		}
	}))
	t.Cleanup(srv.Close)

	r := New(Options{})
	r.probeBase = srv.URL

	url, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != srv.URL {
		t.Errorf("url = %q, want %q", url, srv.URL)
	}

	// Second call shares the memoized result.
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probes != 1 {
		t.Errorf("probes = %d, want 1", probes)
	}
}

func TestResolve_MemoizesFailure(t *testing.T) {
	clearPortEnv(t)
	probes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probes++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	r := New(Options{})
	r.probeBase = srv.URL

	_, err1 := r.Resolve(context.Background())
	if err1 == nil {
		t.Fatal("expected resolution failure")
	}
	_, err2 := r.Resolve(context.Background())
	if err2 != err1 {
		t.Errorf("second error = %v, want memoized %v", err2, err1)
	}
	if probes != 1 {
		t.Errorf("probes = %d, want 1", probes)
	}
}
