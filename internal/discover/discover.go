// Package discover locates a running ziee server for clients that were not
// given an address. The desktop app serves its embedded API on a fixed local
// port; headless setups pin the address through config or environment.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// desktopPort is where the desktop app serves its embedded API.
const desktopPort = 1430

// Options configure a Resolver.
type Options struct {
	// BaseURL pins the server address and skips discovery.
	BaseURL string
	// ProbeTimeout bounds each liveness probe. Zero means 1500ms.
	ProbeTimeout time.Duration
	// HTTPClient is used for probes.
	HTTPClient *http.Client
}

// Resolver finds the server address once and shares the outcome with every
// caller. Failure is memoized the same as success: the first resolution
// decides for the life of the process.
type Resolver struct {
	opts      Options
	probeBase string

	once sync.Once
	url  string
	err  error
}

func New(opts Options) *Resolver {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 1500 * time.Millisecond
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	return &Resolver{
		opts:      opts,
		probeBase: fmt.Sprintf("http://127.0.0.1:%d", desktopPort),
	}
}

// Resolve returns the server base URL. Safe for concurrent use; the first
// caller does the work and everyone shares the result.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	r.once.Do(func() {
		r.url, r.err = r.resolve(ctx)
		if r.err == nil {
			slog.Debug("server resolved", "url", r.url)
		}
	})
	return r.url, r.err
}

func (r *Resolver) resolve(ctx context.Context) (string, error) {
	if r.opts.BaseURL != "" {
		return strings.TrimRight(r.opts.BaseURL, "/"), nil
	}

	// The desktop app exports its port for child processes.
	for _, env := range []string{"ZIEE_PORT", "PORT"} {
		raw := os.Getenv(env)
		if raw == "" {
			continue
		}
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return "", fmt.Errorf("invalid port in %s: %q", env, raw)
		}
		return "http://127.0.0.1:" + strconv.Itoa(port), nil
	}

	if r.probe(ctx, r.probeBase) {
		return r.probeBase, nil
	}
	return "", fmt.Errorf("no ziee server found; set server.base_url or start the desktop app")
}

// probe reports whether base answers GET /health with 200.
func (r *Resolver) probe(ctx context.Context, base string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.opts.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := r.opts.HTTPClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
