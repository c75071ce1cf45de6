package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inboxops/relay/config"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	org_id TEXT NOT NULL,
	name TEXT NOT NULL,
	trigger_type TEXT NOT NULL,
	trigger_config TEXT NOT NULL DEFAULT '{}',
	steps TEXT NOT NULL DEFAULT '[]',
	active INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_workflows_org ON workflows(org_id);
CREATE INDEX IF NOT EXISTS idx_workflows_trigger ON workflows(trigger_type, active);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	org_id TEXT NOT NULL,
	workflow_id TEXT NOT NULL,
	status TEXT NOT NULL,
	trigger_data TEXT NOT NULL DEFAULT '{}',
	started_at INTEGER NOT NULL,
	completed_at INTEGER,
	error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_runs_org_started ON runs(org_id, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_workflow ON runs(workflow_id, started_at DESC);

CREATE TABLE IF NOT EXISTS run_step_results (
	run_id TEXT NOT NULL,
	step_number INTEGER NOT NULL,
	status TEXT NOT NULL,
	output TEXT,
	error TEXT,
	recorded_at INTEGER NOT NULL,
	PRIMARY KEY (run_id, step_number)
);

CREATE TABLE IF NOT EXISTS credentials (
	org_id TEXT NOT NULL,
	integration TEXT NOT NULL,
	secret BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (org_id, integration)
);
`

type baseDao struct {
	db *sql.DB
}

// Open opens the sqlite database and applies the schema. Schema setup happens
// here, at startup, never lazily on first use.
func Open(conf config.SqliteStorageConfig) (*sql.DB, error) {
	if dir := filepath.Dir(conf.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", conf.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return db, nil
}
