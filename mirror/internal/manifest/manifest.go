// CLAUDE:SUMMARY SQLite journal of cached assets and mirror runs, with aggregate stats.
// Package manifest records what the mirror fetched and when.
//
// The on-disk asset store remains the dedup signal within a run; the manifest
// is bookkeeping on top of it: one row per cached asset, one row per run, and
// aggregate stats for operators. Opening is optional — a nil *Store is a
// valid "journal disabled" value for every caller.
package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Asset is one journaled asset fetch.
type Asset struct {
	CacheKey    string `json:"cache_key"`
	Filename    string `json:"filename"`
	SourceURL   string `json:"source_url"`
	ContentHash string `json:"content_hash"`
	Size        int64  `json:"size"`
	StatusCode  int    `json:"status_code"`
	FetchedAt   int64  `json:"fetched_at"`
}

// Run is one completed mirror run.
type Run struct {
	ID         int64  `json:"id"`
	TargetURL  string `json:"target_url"`
	OutputPath string `json:"output_path"`
	Downloaded int    `json:"downloaded"`
	Reused     int    `json:"reused"`
	Failed     int    `json:"failed"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
}

// Stats aggregates the journal.
type Stats struct {
	Assets     int   `json:"assets"`
	TotalBytes int64 `json:"total_bytes"`
	Runs       int   `json:"runs"`
	LastRunAt  int64 `json:"last_run_at,omitempty"`
}

// Store wraps the SQLite journal database.
type Store struct {
	DB *sql.DB
}

// Open opens (and if needed creates) the journal at path with WAL and a
// busy timeout applied, then ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("manifest: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("manifest: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest: schema: %w", err)
	}

	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// RecordAsset upserts an asset row. The cache key is the primary key, so a
// re-fetch of the same path overwrites the previous row.
func (s *Store) RecordAsset(ctx context.Context, a *Asset) error {
	if a.FetchedAt == 0 {
		a.FetchedAt = time.Now().UnixMilli()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO assets
			(cache_key, filename, source_url, content_hash, size, status_code, fetched_at)
		VALUES (?,?,?,?,?,?,?)`,
		a.CacheKey, a.Filename, a.SourceURL, a.ContentHash, a.Size, a.StatusCode, a.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("manifest: record asset: %w", err)
	}
	return nil
}

// GetAsset retrieves an asset row by cache key. Returns nil when absent.
func (s *Store) GetAsset(ctx context.Context, cacheKey string) (*Asset, error) {
	a := &Asset{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT cache_key, filename, source_url, content_hash, size, status_code, fetched_at
		FROM assets WHERE cache_key = ?`, cacheKey).Scan(
		&a.CacheKey, &a.Filename, &a.SourceURL, &a.ContentHash, &a.Size, &a.StatusCode, &a.FetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: get asset: %w", err)
	}
	return a, nil
}

// RecordRun appends a run row and returns its ID.
func (s *Store) RecordRun(ctx context.Context, r *Run) (int64, error) {
	if r.FinishedAt == 0 {
		r.FinishedAt = time.Now().UnixMilli()
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO runs
			(target_url, output_path, downloaded, reused, failed, started_at, finished_at)
		VALUES (?,?,?,?,?,?,?)`,
		r.TargetURL, r.OutputPath, r.Downloaded, r.Reused, r.Failed, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("manifest: record run: %w", err)
	}
	return res.LastInsertId()
}

// Stats aggregates asset and run counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(size), 0) FROM assets`).Scan(&st.Assets, &st.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("manifest: stats: %w", err)
	}
	var lastRun sql.NullInt64
	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(finished_at) FROM runs`).Scan(&st.Runs, &lastRun)
	if err != nil {
		return nil, fmt.Errorf("manifest: stats: %w", err)
	}
	if lastRun.Valid {
		st.LastRunAt = lastRun.Int64
	}
	return st, nil
}
