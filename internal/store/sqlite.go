// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides vault/namespace/record persistence with automatic schema creation

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS vault (
			singleton     INTEGER PRIMARY KEY CHECK (singleton = 1),
			proxy_address TEXT NOT NULL,
			root_address  TEXT NOT NULL,
			extend_handle TEXT NOT NULL,
			created_at    TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS namespaces (
			address       TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			description   TEXT NOT NULL,
			display_uri   TEXT NOT NULL,
			owner_address TEXT NOT NULL,
			created_at    TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS records (
			address           TEXT PRIMARY KEY,
			namespace_address TEXT NOT NULL,
			owner_id          TEXT NOT NULL,
			owner_address     TEXT NOT NULL,
			display_name      TEXT NOT NULL,
			mutate_handle     TEXT NOT NULL,
			destroy_handle    TEXT NOT NULL,
			created_at        TEXT NOT NULL,
			updated_at        TEXT NOT NULL,

			FOREIGN KEY (namespace_address) REFERENCES namespaces(address)
		);

		CREATE INDEX IF NOT EXISTS idx_records_owner ON records(owner_address);

		CREATE TABLE IF NOT EXISTS transfer_nonces (
			nonce          TEXT PRIMARY KEY,
			record_address TEXT NOT NULL,
			consumed_at    TEXT
		);

		CREATE TABLE IF NOT EXISTS registry_events (
			event_id       TEXT PRIMARY KEY,
			type           TEXT NOT NULL,
			record_address TEXT NOT NULL,
			owner_id       TEXT NOT NULL,
			derived_name   TEXT NOT NULL,
			display_name   TEXT NOT NULL,
			actor_address  TEXT NOT NULL,
			ts             TEXT NOT NULL,

			CHECK (type IN ('record_created'))
		);

		CREATE INDEX IF NOT EXISTS idx_events_ts ON registry_events(ts);
		CREATE INDEX IF NOT EXISTS idx_events_record ON registry_events(record_address);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
