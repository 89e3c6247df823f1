package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultFilename is the database file created inside the vault root.
const DefaultFilename = "vault.db"

// DB wraps the SQLite handle and associated metadata.
type DB struct {
	sql  *sql.DB
	path string
}

// Open initialises a SQLite database at the given path, applies the schema
// and returns a DB wrapper. The caller must Close it.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer; read-modify-write of a vault happens on one connection.
	handle.SetMaxOpenConns(1)

	if err := handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if err := EnsurePerm0600(path); err != nil {
		handle.Close()
		return nil, err
	}

	d := &DB{sql: handle, path: path}
	if err := Migrate(d); err != nil {
		handle.Close()
		return nil, err
	}
	return d, nil
}

// Path returns the database file location.
func (d *DB) Path() string { return d.path }

// Close releases the database resources.
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// EnsurePerm0600 restricts the database file to its owner on Unix systems.
func EnsurePerm0600(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(path, 0o600); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("chmod database: %w", err)
	}
	return nil
}

// The credential records and secret blobs live in separate tables and are
// written independently, like the two files of the filesystem layout.
const schema = `
CREATE TABLE IF NOT EXISTS credentials (
	username   TEXT     PRIMARY KEY,
	record     TEXT     NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS secret_blobs (
	username   TEXT     PRIMARY KEY,
	blob       BLOB     NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Migrate ensures the credentials and secret_blobs tables exist.
func Migrate(d *DB) error {
	if d == nil || d.sql == nil {
		return errors.New("database handle is nil")
	}
	if _, err := d.sql.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
