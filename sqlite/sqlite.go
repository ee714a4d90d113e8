// Package sqlite provides SQLite-based storage implementations for civet
// services.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	// This also serializes the deactivate-then-insert sequence in manifest
	// saves within the process.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait 5 seconds on lock contention before failing, instead of
	// returning "database is locked" immediately.
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL mode for file-based databases: much faster writes and concurrent
	// reads during writes, at the cost of -wal and -shm sidecar files.
	// Not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// BeginTx starts a transaction.
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, nil)
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// Stats returns database statistics.
func (db *DB) Stats() sql.DBStats {
	return db.db.Stats()
}

// createSchema creates the database tables if they don't exist.
//
// The partial unique index on active manifests is the invariant that at most
// one manifest per (region, URL, data type) key is active: even if two
// processes race through a save, the second insert fails instead of leaving
// two active rows.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS manifests (
			id TEXT PRIMARY KEY,
			region_id TEXT NOT NULL,
			source_url TEXT NOT NULL,
			data_type TEXT NOT NULL,
			version INTEGER NOT NULL,
			structure_hash TEXT NOT NULL DEFAULT '',
			prompt_hash TEXT NOT NULL DEFAULT '',
			prompt_version TEXT NOT NULL DEFAULT '',
			container_selector TEXT NOT NULL,
			item_selector TEXT NOT NULL,
			field_mappings TEXT NOT NULL,
			preprocessing TEXT NOT NULL DEFAULT '[]',
			confidence REAL NOT NULL DEFAULT 0,
			success_count INTEGER NOT NULL DEFAULT 0,
			failure_count INTEGER NOT NULL DEFAULT 0,
			is_active INTEGER NOT NULL DEFAULT 0,
			last_used_at TEXT,
			last_checked_at TEXT,
			created_at TEXT NOT NULL,
			UNIQUE (region_id, source_url, data_type, version)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS ux_manifests_active
			ON manifests(region_id, source_url, data_type) WHERE is_active = 1;

		CREATE INDEX IF NOT EXISTS idx_manifests_key
			ON manifests(region_id, source_url, data_type);

		CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			region_id TEXT NOT NULL,
			url TEXT NOT NULL,
			data_type TEXT NOT NULL,
			content_goal TEXT NOT NULL DEFAULT '',
			render_js INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			UNIQUE (region_id, url, data_type)
		);
	`

	_, err := db.db.Exec(schema)
	return err
}
