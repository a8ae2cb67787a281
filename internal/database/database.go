//go:build cgo

// Package database stores parsed callgrind profiles in DuckDB for SQL
// ranking across runs.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rs/zerolog"
)

// Database wraps a DuckDB connection holding profile tables.
type Database struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Open opens (or creates) the DuckDB file at path and initializes the
// schema. An empty path opens an in-memory database.
func Open(path string, logger zerolog.Logger) (*Database, error) {
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:     db,
		path:   path,
		logger: logger,
	}

	if err := database.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info().
		Str("path", path).
		Msg("Database initialized")

	return database, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	d.logger.Debug().
		Str("path", d.path).
		Msg("Database closed")
	return nil
}

// Path returns the file path of the database; empty when in memory.
func (d *Database) Path() string {
	return d.path
}

// DB returns the underlying sql.DB connection.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Ping checks if the database connection is alive.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}
