// CLAUDE:SUMMARY Asset cache: resolves a remote locator to a local filename, fetching and persisting each unique path at most once.
// Package assets implements the asset cache and fetcher.
//
// A locator is resolved against the page URL, keyed by a truncated MD5 of the
// resolved path (query excluded), and persisted as <key><ext> in the asset
// directory. A key is fetched at most once: an in-memory key map is consulted
// first, then the filesystem, so repeated references — and repeated runs over
// the same store — reuse the cached file. Resolution never fails the caller:
// any fetch problem degrades to returning the original locator unchanged.
package assets

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/pagemirror/mirror/internal/fetch"
	"github.com/hazyhaar/pagemirror/mirror/internal/manifest"
)

// fallbackExt is used when the resolved path carries no extension.
const fallbackExt = ".bin"

// Getter fetches a URL. Implemented by fetch.Fetcher.
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Result, error)
}

// Config configures the Store.
type Config struct {
	// Dir is the on-disk asset directory. Must exist before Resolve is called.
	Dir string

	// DirName is the public path segment for local references. Default: "assets".
	DirName string

	// PublicBase is the base path prepended to every local reference.
	PublicBase string

	// Fetcher retrieves asset bytes.
	Fetcher Getter

	// Journal records fetched assets. Nil disables journaling.
	Journal *manifest.Store

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.DirName == "" {
		c.DirName = "assets"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Counts reports what a Store did over its lifetime.
type Counts struct {
	Downloaded int
	Reused     int
	Failed     int
}

// Store caches remote assets on disk under content-derived names.
type Store struct {
	cfg    Config
	logger *slog.Logger
	seen   map[string]string // cache key → filename, fetched or found this run
	counts Counts
}

// New creates a Store.
func New(cfg Config) *Store {
	cfg.defaults()
	return &Store{
		cfg:    cfg,
		logger: cfg.Logger,
		seen:   make(map[string]string),
	}
}

// Counts returns the download/reuse/failure tally so far.
func (s *Store) Counts() Counts {
	return s.counts
}

// Resolve turns a remote locator into a local reference, fetching and
// persisting the asset on first sight of its cache key. Empty and data:
// locators pass through untouched. On any fetch failure the original
// locator is returned unchanged and the pipeline continues.
func (s *Store) Resolve(ctx context.Context, locator string, base *url.URL) string {
	if locator == "" || strings.HasPrefix(locator, "data:") {
		return locator
	}

	decoded, err := url.PathUnescape(locator)
	if err != nil {
		decoded = locator
	}
	ref, err := url.Parse(decoded)
	if err != nil {
		s.logger.Warn("assets: unparseable locator, leaving as-is", "locator", locator)
		return locator
	}
	abs := base.ResolveReference(ref)

	key := cacheKey(abs.Path)
	ext := path.Ext(abs.Path)
	if ext == "" {
		ext = fallbackExt
	}
	filename := key + ext

	if !s.cached(key, filename) {
		if err := s.fetchAndStore(ctx, abs, key, filename); err != nil {
			s.counts.Failed++
			s.logger.Warn("assets: download failed, keeping original URL",
				"url", abs.String(), "error", err)
			return locator
		}
		s.counts.Downloaded++
		s.logger.Info("assets: downloaded",
			"file", filename, "original", path.Base(abs.Path))
	} else {
		s.counts.Reused++
	}

	local := s.cfg.PublicBase + "/" + s.cfg.DirName + "/" + filename
	if abs.RawQuery != "" {
		local += "?" + abs.RawQuery
	}
	return local
}

// cached reports whether the key is already stored, consulting the in-memory
// map before the filesystem so a single run never races its own writes.
func (s *Store) cached(key, filename string) bool {
	if _, ok := s.seen[key]; ok {
		return true
	}
	info, err := os.Stat(filepath.Join(s.cfg.Dir, filename))
	if err == nil && !info.IsDir() {
		s.seen[key] = filename
		return true
	}
	return false
}

func (s *Store) fetchAndStore(ctx context.Context, abs *url.URL, key, filename string) error {
	res, err := s.cfg.Fetcher.Get(ctx, abs.String())
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", res.StatusCode)
	}

	target := filepath.Join(s.cfg.Dir, filename)
	if err := os.WriteFile(target, res.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	s.seen[key] = filename

	if s.cfg.Journal != nil {
		sum := sha256.Sum256(res.Body)
		err := s.cfg.Journal.RecordAsset(ctx, &manifest.Asset{
			CacheKey:    key,
			Filename:    filename,
			SourceURL:   abs.String(),
			ContentHash: hex.EncodeToString(sum[:]),
			Size:        int64(len(res.Body)),
			StatusCode:  res.StatusCode,
		})
		if err != nil {
			// Journal trouble must not undo a successful fetch.
			s.logger.Warn("assets: journal write failed", "error", err)
		}
	}
	return nil
}

// cacheKey derives the on-disk identifier: the first 10 hex characters of
// the MD5 of the resolved URL path. The query string never participates, so
// cache-busting parameters collapse onto one file.
func cacheKey(urlPath string) string {
	sum := md5.Sum([]byte(urlPath))
	return hex.EncodeToString(sum[:])[:10]
}
