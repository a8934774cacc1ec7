package mirror

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testOrigin serves a small page with every kind of URL-bearing location the
// rewriter handles, plus assets for them. /broken.png always 404s.
func testOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
<script id="i18nWebflowScript" src="/js/i18n.js"></script>
<link rel="stylesheet" href="/css/site.css" integrity="sha384-x" crossorigin="anonymous">
<script src="/js/app.js"></script>
</head><body>
<h1>Café page</h1>
<img src="/img/logo.png?v=7">
<img src="/broken.png">
<div data-urls="/img/a.png, /img/b.png"></div>
</body></html>`))
	})
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(body)) }
	}
	mux.HandleFunc("/css/site.css", serve("body{}"))
	mux.HandleFunc("/js/app.js", serve("app"))
	mux.HandleFunc("/js/i18n.js", serve("i18n"))
	mux.HandleFunc("/img/logo.png", serve("logo"))
	mux.HandleFunc("/img/a.png", serve("a"))
	mux.HandleFunc("/img/b.png", serve("b"))
	mux.HandleFunc("/broken.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return httptest.NewServer(mux)
}

func testConfig(t *testing.T, origin string) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		TargetURL:     origin + "/",
		PublicBaseURL: "",
		OutputDir:     filepath.Join(dir, "original"),
		AssetDir:      filepath.Join(dir, "assets"),
	}
}

func runMirror(t *testing.T, cfg *Config) (*Report, string) {
	t.Helper()
	m, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer m.Close()

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	out, err := os.ReadFile(report.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return report, string(out)
}

func TestRun_EndToEnd(t *testing.T) {
	// WHAT: A full run rewrites every reference kind, downloads each asset
	// once, strips SRI attributes, removes the i18n script, and leaves the
	// broken asset's original URL in place.
	srv := testOrigin(t)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	report, out := runMirror(t, cfg)

	if strings.Contains(out, "i18nWebflowScript") {
		t.Error("i18n script survived")
	}
	if strings.Contains(out, "integrity") || strings.Contains(out, "crossorigin") {
		t.Error("SRI attributes survived")
	}
	if !strings.Contains(out, `src="/broken.png"`) {
		t.Error("failed asset should keep its original URL")
	}
	if !strings.Contains(out, "/assets/") {
		t.Error("no local references written")
	}
	// logo.png's query must be preserved on the rewritten reference.
	if !strings.Contains(out, "?v=7") {
		t.Error("query string lost on rewritten asset")
	}

	// css, app.js, logo, a, b — five successes; i18n.js was removed before
	// the walk and broken.png failed.
	if report.Downloaded != 5 {
		t.Errorf("downloaded: got %d, want 5", report.Downloaded)
	}
	if report.Failed != 1 {
		t.Errorf("failed: got %d, want 1", report.Failed)
	}

	entries, _ := os.ReadDir(cfg.AssetDir)
	if len(entries) != 5 {
		t.Errorf("asset files: got %d, want 5", len(entries))
	}
	for _, e := range entries {
		name := e.Name()
		if len(strings.TrimSuffix(name, filepath.Ext(name))) != 10 {
			t.Errorf("cache key not 10 hex chars: %q", name)
		}
	}
}

func TestRun_OutputIsLatin1(t *testing.T) {
	// WHAT: The output file is ISO-8859-1, not UTF-8.
	// WHY: Downstream consumers expect the single-byte Western encoding.
	srv := testOrigin(t)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	_, out := runMirror(t, cfg)

	// "Café" must appear with é as the single byte 0xE9.
	if !strings.Contains(out, "Caf\xe9") {
		t.Error("output not Latin-1 encoded")
	}
	if bytes.Contains([]byte(out), []byte("Caf\xc3\xa9")) {
		t.Error("output contains UTF-8 sequence")
	}
}

func TestRun_StyleURLRewritten(t *testing.T) {
	// WHAT: A remote url("...") inside an inline style is rewritten to a
	// local reference; the rest of the declaration survives.
	// The style rule only fires on absolute URLs, so the page is built once
	// the server's address is known.
	mux := http.NewServeMux()
	mux.HandleFunc("/bg.png", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("bg")) })
	var styleSrv *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div style='background:url("` + styleSrv.URL + `/bg.png") no-repeat'></div></body></html>`))
	})
	styleSrv = httptest.NewServer(mux)
	defer styleSrv.Close()

	cfg := testConfig(t, styleSrv.URL)
	report, out := runMirror(t, cfg)

	if report.Downloaded != 1 {
		t.Errorf("downloaded: got %d, want 1", report.Downloaded)
	}
	if !strings.Contains(out, "/assets/") || !strings.Contains(out, "no-repeat") {
		t.Errorf("style rewrite wrong: %s", out)
	}
	if strings.Contains(out, styleSrv.URL+"/bg.png") {
		t.Error("remote style URL survived")
	}
}

func TestRun_SecondRunReusesCache(t *testing.T) {
	// WHAT: Running twice against the same asset store downloads nothing new.
	// WHY: Disk existence is the durable dedup signal across runs.
	srv := testOrigin(t)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	first, _ := runMirror(t, cfg)
	second, _ := runMirror(t, cfg)

	if second.Downloaded != 0 {
		t.Errorf("second run downloaded %d assets", second.Downloaded)
	}
	if second.Reused != first.Downloaded {
		t.Errorf("reused: got %d, want %d", second.Reused, first.Downloaded)
	}
}

func TestRun_ManifestJournaling(t *testing.T) {
	// WHAT: With a manifest configured, assets and runs are journaled and
	// Stats aggregates them.
	srv := testOrigin(t)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.ManifestPath = filepath.Join(t.TempDir(), "mirror.db")

	m, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer m.Close()

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	stats, err := m.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Assets != report.Downloaded {
		t.Errorf("journaled assets: got %d, want %d", stats.Assets, report.Downloaded)
	}
	if stats.Runs != 1 {
		t.Errorf("runs: got %d, want 1", stats.Runs)
	}
}

func TestRun_NoTarget(t *testing.T) {
	// WHAT: A missing target URL is rejected with the sentinel error.
	m, err := New(&Config{OutputDir: t.TempDir(), AssetDir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer m.Close()

	if _, err := m.Run(context.Background()); !errors.Is(err, ErrNoTarget) {
		t.Errorf("expected ErrNoTarget, got %v", err)
	}
}

func TestRun_PageTransportFailureIsFatal(t *testing.T) {
	// WHAT: An unreachable target aborts the run and writes no output.
	cfg := testConfig(t, "http://127.0.0.1:1")
	m, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer m.Close()

	if _, err := m.Run(context.Background()); !errors.Is(err, ErrPageFetch) {
		t.Errorf("expected ErrPageFetch, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "index.html")); !os.IsNotExist(err) {
		t.Error("output file should not exist after a fatal failure")
	}
}

func TestRun_MarkdownRendition(t *testing.T) {
	// WHAT: With Markdown enabled, an index.md lands next to index.html.
	srv := testOrigin(t)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Markdown = true
	runMirror(t, cfg)

	md, err := os.ReadFile(filepath.Join(cfg.OutputDir, "index.md"))
	if err != nil {
		t.Fatalf("read index.md: %v", err)
	}
	if !strings.Contains(string(md), "Café") {
		t.Errorf("markdown missing heading: %s", md)
	}
}
