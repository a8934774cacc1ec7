// CLAUDE:SUMMARY Plain HTTP GET fetcher used for the target page and every discovered asset.
// Package fetch implements the outbound HTTP boundary of the mirror.
//
// Every request is a simple GET with a configurable User-Agent and no
// conditional headers. Redirects follow the transport default. The default
// timeout is zero: a hung server hangs the caller, which is the documented
// behaviour of the pipeline. Set Config.Timeout to opt out of that.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is the outcome of a single GET.
type Result struct {
	Body       []byte
	StatusCode int
}

// Config configures the fetcher.
type Config struct {
	// Timeout for a whole request. Default: 0 (no timeout).
	Timeout time.Duration

	// MaxBytes caps the response body size. Default: 64MB.
	MaxBytes int64

	// UserAgent sent with every request.
	UserAgent string
}

func (c *Config) defaults() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = 64 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "pagemirror/1.0"
	}
}

// Fetcher performs HTTP GET requests.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Get retrieves url and returns the body and status code. A non-2xx status
// is not an error; the caller decides what a given status means. The error
// return covers transport failures only.
func (f *Fetcher) Get(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Result{Body: body, StatusCode: resp.StatusCode}, nil
}

// ContentType fetches url and returns body, status, and the Content-Type
// header. Used for the page itself, where the declared charset matters.
func (f *Fetcher) ContentType(ctx context.Context, url string) (*Result, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}

	return &Result{Body: body, StatusCode: resp.StatusCode}, resp.Header.Get("Content-Type"), nil
}
