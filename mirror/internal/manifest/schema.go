// CLAUDE:SUMMARY SQL schema for the asset/run journal.
package manifest

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	cache_key    TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	source_url   TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	size         INTEGER NOT NULL DEFAULT 0,
	status_code  INTEGER NOT NULL DEFAULT 0,
	fetched_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	target_url  TEXT NOT NULL,
	output_path TEXT NOT NULL,
	downloaded  INTEGER NOT NULL DEFAULT 0,
	reused      INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assets_fetched_at ON assets(fetched_at);
CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);
`
