//go:build cgo

package database

import "fmt"

// initSchema creates all tables and indexes. Counter columns are BIGINT;
// values above math.MaxInt64 wrap.
func (d *Database) initSchema() error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ddl := range schemaDDL {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		events TEXT NOT NULL,
		lines_read BIGINT NOT NULL,
		error_count BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS profile_entries (
		profile_id TEXT NOT NULL,
		scope_key TEXT NOT NULL,
		file_id TEXT NOT NULL,
		function_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		function_name TEXT NOT NULL,
		line_count BIGINT NOT NULL,
		first_line BIGINT,
		PRIMARY KEY (profile_id, scope_key)
	)`,

	`CREATE TABLE IF NOT EXISTS profile_events (
		profile_id TEXT NOT NULL,
		scope_key TEXT NOT NULL,
		event TEXT NOT NULL,
		value BIGINT NOT NULL,
		PRIMARY KEY (profile_id, scope_key, event)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_profile_events_event ON profile_events(profile_id, event)`,

	`CREATE TABLE IF NOT EXISTS profile_calls (
		profile_id TEXT NOT NULL,
		seq BIGINT NOT NULL,
		caller_key TEXT NOT NULL,
		callee_key TEXT NOT NULL,
		calls BIGINT NOT NULL,
		cost BIGINT NOT NULL,
		PRIMARY KEY (profile_id, seq)
	)`,

	`CREATE TABLE IF NOT EXISTS profile_errors (
		profile_id TEXT NOT NULL,
		seq BIGINT NOT NULL,
		line TEXT NOT NULL,
		PRIMARY KEY (profile_id, seq)
	)`,
}
