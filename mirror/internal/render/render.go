// CLAUDE:SUMMARY Headless Chrome page fetch via Rod for JS-assembled pages.
// Package render fetches the target page through headless Chrome instead of
// a plain GET. Pages that assemble their DOM in JavaScript have nothing
// worth mirroring in the raw response body; rendering first gives the tree
// rewriter the DOM a browser would see. Assets are still fetched with plain
// GETs — only the page markup goes through the browser.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Config configures the renderer.
type Config struct {
	// ControlURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome.
	ControlURL string

	// Settle is how long to wait after load for late DOM mutations.
	// Default: 2s.
	Settle time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Settle <= 0 {
		c.Settle = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Renderer drives a Chrome instance. Start before use, Close when done.
type Renderer struct {
	cfg     Config
	logger  *slog.Logger
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// New creates a Renderer. Call Start to launch or connect to Chrome.
func New(cfg Config) *Renderer {
	cfg.defaults()
	return &Renderer{cfg: cfg, logger: cfg.Logger}
}

// Start launches a local headless Chrome, or connects to ControlURL.
func (r *Renderer) Start(ctx context.Context) error {
	controlURL := r.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("render: launch chrome: %w", err)
		}
		r.lnch = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("render: connect: %w", err)
	}
	r.browser = b
	r.logger.Info("render: browser ready", "remote", r.cfg.ControlURL != "")
	return nil
}

// HTML navigates to pageURL and returns the rendered outer HTML.
func (r *Renderer) HTML(ctx context.Context, pageURL string) ([]byte, error) {
	if r.browser == nil {
		return nil, fmt.Errorf("render: not started")
	}

	page, err := stealth.Page(r.browser)
	if err != nil {
		return nil, fmt.Errorf("render: new page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("render: navigate %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("render: wait load: %w", err)
	}

	// Late mutations (lazy hydration, font swaps) land shortly after load.
	select {
	case <-time.After(r.cfg.Settle):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	h, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("render: outer html: %w", err)
	}
	return []byte(h), nil
}

// Close shuts down the browser and, when locally launched, the Chrome process.
func (r *Renderer) Close() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
	}
	if r.lnch != nil {
		r.lnch.Cleanup()
	}
	return err
}
