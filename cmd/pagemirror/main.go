// CLAUDE:SUMMARY CLI entry point for pagemirror — env-configured single-page mirror with preview, stats, and MCP modes.
// Command pagemirror mirrors a single web page to local storage.
//
// Configuration comes from the environment (TARGET_URL, BASE_URL, and
// friends) or from a YAML file. The default invocation runs the full
// pipeline once and exits.
//
// Usage:
//
//	TARGET_URL=https://example.com BASE_URL=https://cdn.local pagemirror
//	pagemirror -config mirror.yaml        # run with config file
//	pagemirror -stats                     # show journal stats and exit
//	pagemirror -serve :8080               # serve the finished snapshot
//	pagemirror -mcp                       # run as an MCP stdio server
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/pagemirror/mirror"
	"github.com/hazyhaar/pagemirror/preview"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default: environment)")
	serveAddr := flag.String("serve", "", "serve the finished snapshot on this address and exit")
	showStats := flag.Bool("stats", false, "show journal stats and exit")
	mcpMode := flag.Bool("mcp", false, "run as an MCP stdio server")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *serveAddr, *showStats, *mcpMode); err != nil {
		logger.Error("pagemirror: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, serveAddr string, showStats, mcpMode bool) error {
	cfg, err := resolveConfig(configPath)
	if err != nil {
		return err
	}

	// Preview needs no pipeline at all.
	if serveAddr != "" {
		srv := preview.New(preview.Config{
			OutputDir: orDefault(cfg.OutputDir, "original"),
			AssetDir:  orDefault(cfg.AssetDir, "assets"),
			Logger:    logger,
		})
		return srv.ListenAndServe(ctx, serveAddr)
	}

	m, err := mirror.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer m.Close()

	// One-shot: stats.
	if showStats {
		stats, err := m.Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	// MCP server mode.
	if mcpMode {
		srv := mcp.NewServer(&mcp.Implementation{Name: "pagemirror", Version: "1.0.0"}, nil)
		m.RegisterMCP(srv)
		logger.Info("pagemirror: MCP server on stdio")
		return srv.Run(ctx, &mcp.StdioTransport{})
	}

	// Default: run the pipeline once.
	report, err := m.Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func resolveConfig(configPath string) (*mirror.Config, error) {
	if configPath != "" {
		return mirror.LoadConfigFile(configPath)
	}
	return mirror.FromEnv(), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
