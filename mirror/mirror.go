// CLAUDE:SUMMARY Mirror orchestrator — fetch the page, rewrite asset references, persist markup and assets.
// Package mirror snapshots a single web page to local storage.
//
// The pipeline: fetch the target markup (plain GET or rendered through
// Chrome), decode it to canonical UTF-8, parse, rewrite every remote
// resource reference through the asset cache, and write the result as
// ISO-8859-1 markup next to the asset store. Exactly one page is visited —
// no link-following.
//
// Usage:
//
//	m, err := mirror.New(mirror.FromEnv(), logger)
//	defer m.Close()
//	report, err := m.Run(ctx)
package mirror

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/hazyhaar/pagemirror/mirror/internal/assets"
	"github.com/hazyhaar/pagemirror/mirror/internal/fetch"
	"github.com/hazyhaar/pagemirror/mirror/internal/manifest"
	"github.com/hazyhaar/pagemirror/mirror/internal/render"
	"github.com/hazyhaar/pagemirror/mirror/internal/rewrite"
	"github.com/hazyhaar/pagemirror/mirror/internal/textenc"
)

// outputName is the fixed markup filename inside OutputDir.
const outputName = "index.html"

// Report summarises one completed run.
type Report struct {
	TargetURL  string        `json:"target_url"`
	OutputPath string        `json:"output_path"`
	Downloaded int           `json:"downloaded"`
	Reused     int           `json:"reused"`
	Failed     int           `json:"failed"`
	PageBytes  int           `json:"page_bytes"`
	Duration   time.Duration `json:"duration"`
}

// Stats aggregates the manifest journal.
type Stats struct {
	Assets     int   `json:"assets"`
	TotalBytes int64 `json:"total_bytes"`
	Runs       int   `json:"runs"`
	LastRunAt  int64 `json:"last_run_at,omitempty"`
}

// Mirror runs the snapshot pipeline.
type Mirror struct {
	cfg      *Config
	logger   *slog.Logger
	fetcher  *fetch.Fetcher
	journal  *manifest.Store
	renderer *render.Renderer
}

// New creates a Mirror. Opens the manifest journal when one is configured.
func New(cfg *Config, logger *slog.Logger) (*Mirror, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}

	m := &Mirror{
		cfg:    cfg,
		logger: logger,
		fetcher: fetch.New(fetch.Config{
			Timeout:   cfg.Timeout,
			MaxBytes:  cfg.MaxAssetBytes,
			UserAgent: cfg.UserAgent,
		}),
	}

	if cfg.ManifestPath != "" {
		j, err := manifest.Open(cfg.ManifestPath)
		if err != nil {
			return nil, fmt.Errorf("open manifest: %w", err)
		}
		m.journal = j
	}
	return m, nil
}

// Close releases the journal and, if one was started, the browser.
func (m *Mirror) Close() error {
	var err error
	if m.renderer != nil {
		err = m.renderer.Close()
	}
	if m.journal != nil {
		if jerr := m.journal.Close(); err == nil {
			err = jerr
		}
	}
	return err
}

// Run executes the full pipeline once. Asset failures degrade to leaving
// the original reference in the markup; only a transport failure on the
// page itself (or an output write failure) aborts the run, in which case
// nothing is written.
func (m *Mirror) Run(ctx context.Context) (*Report, error) {
	if m.cfg.TargetURL == "" {
		return nil, ErrNoTarget
	}
	base, err := url.Parse(m.cfg.TargetURL)
	if err != nil {
		return nil, fmt.Errorf("parse target URL: %w", err)
	}

	if err := os.MkdirAll(m.cfg.AssetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create asset dir: %w", err)
	}
	if err := os.MkdirAll(m.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	started := time.Now()
	m.logger.Info("mirror: fetching page", "url", m.cfg.TargetURL, "rendered", m.cfg.Render.Enabled)

	raw, contentType, err := m.fetchPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageFetch, err)
	}

	text, err := textenc.DecodeUTF8(raw, contentType)
	if err != nil {
		// Undecipherable encoding is never fatal; take the bytes as-is.
		m.logger.Warn("mirror: charset decode failed, using raw bytes", "error", err)
		text = strings.ToValidUTF8(string(raw), "")
	}

	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	store := assets.New(assets.Config{
		Dir:        m.cfg.AssetDir,
		DirName:    filepath.Base(m.cfg.AssetDir),
		PublicBase: m.cfg.PublicBaseURL,
		Fetcher:    m.fetcher,
		Journal:    m.journal,
		Logger:     m.logger,
	})
	rewrite.New(store, m.logger).Rewrite(ctx, doc, base)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render markup: %w", err)
	}

	out, err := textenc.EncodeLatin1(buf.String())
	if err != nil {
		return nil, err
	}
	outputPath := filepath.Join(m.cfg.OutputDir, outputName)
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", outputPath, err)
	}

	if m.cfg.Markdown {
		if err := m.writeMarkdown(buf.String()); err != nil {
			m.logger.Warn("mirror: markdown rendition failed", "error", err)
		}
	}

	counts := store.Counts()
	report := &Report{
		TargetURL:  m.cfg.TargetURL,
		OutputPath: outputPath,
		Downloaded: counts.Downloaded,
		Reused:     counts.Reused,
		Failed:     counts.Failed,
		PageBytes:  len(out),
		Duration:   time.Since(started),
	}

	if m.journal != nil {
		_, err := m.journal.RecordRun(ctx, &manifest.Run{
			TargetURL:  m.cfg.TargetURL,
			OutputPath: outputPath,
			Downloaded: counts.Downloaded,
			Reused:     counts.Reused,
			Failed:     counts.Failed,
			StartedAt:  started.UnixMilli(),
		})
		if err != nil {
			m.logger.Warn("mirror: run journal failed", "error", err)
		}
	}

	m.logger.Info("mirror: done",
		"output", outputPath,
		"downloaded", counts.Downloaded,
		"reused", counts.Reused,
		"failed", counts.Failed,
		"duration", report.Duration)
	return report, nil
}

// fetchPage retrieves the target markup. The body is used whatever the
// status code; only transport failures bubble up. With rendering enabled
// the markup comes from Chrome's final DOM instead.
func (m *Mirror) fetchPage(ctx context.Context) ([]byte, string, error) {
	if m.cfg.Render.Enabled {
		if m.renderer == nil {
			r := render.New(render.Config{
				ControlURL: m.cfg.Render.ControlURL,
				Settle:     m.cfg.Render.Settle,
				Logger:     m.logger,
			})
			if err := r.Start(ctx); err != nil {
				return nil, "", err
			}
			m.renderer = r
		}
		body, err := m.renderer.HTML(ctx, m.cfg.TargetURL)
		// Chrome hands back UTF-8 regardless of the origin encoding.
		return body, "text/html; charset=utf-8", err
	}

	res, contentType, err := m.fetcher.ContentType(ctx, m.cfg.TargetURL)
	if err != nil {
		return nil, "", err
	}
	if res.StatusCode != 200 {
		m.logger.Warn("mirror: page returned non-200, mirroring anyway", "status", res.StatusCode)
	}
	return res.Body, contentType, nil
}

// Stats aggregates the manifest journal.
func (m *Mirror) Stats(ctx context.Context) (*Stats, error) {
	if m.journal == nil {
		return nil, ErrNoManifest
	}
	s, err := m.journal.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		Assets:     s.Assets,
		TotalBytes: s.TotalBytes,
		Runs:       s.Runs,
		LastRunAt:  s.LastRunAt,
	}, nil
}
