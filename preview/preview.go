// CLAUDE:SUMMARY Serves a finished snapshot (index.html + asset store) over HTTP for local inspection.
// Package preview serves a mirrored snapshot so it can be checked in a
// browser before deployment. It serves exactly two things: the rewritten
// markup at the root, and the asset store under its public path segment.
package preview

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
)

// Config configures the preview server.
type Config struct {
	// OutputDir contains index.html.
	OutputDir string

	// AssetDir is the asset store; its base name is the URL path segment
	// assets are served under, matching the references in the markup.
	AssetDir string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "original"
	}
	if c.AssetDir == "" {
		c.AssetDir = "assets"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Server serves one snapshot.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	cfg.defaults()
	return &Server{cfg: cfg, logger: cfg.Logger}
}

// Handler returns the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	segment := filepath.Base(s.cfg.AssetDir)
	r.Get("/"+segment+"/*", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "*")
		// Clean under a rooted path so ".." cannot escape the store.
		name = filepath.Clean("/" + name)
		http.ServeFile(w, req, filepath.Join(s.cfg.AssetDir, name))
	})

	index := func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(s.cfg.OutputDir, "index.html"))
	}
	r.Get("/", index)
	r.Get("/index.html", index)

	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("preview: serving snapshot", "addr", addr, "output", s.cfg.OutputDir)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
