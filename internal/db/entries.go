package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Hussein-Mazeh/lockbox/internal/vault"
)

var _ vault.Store = (*DB)(nil)

// Exists reports whether a credential record is stored for username.
func (d *DB) Exists(username string) (bool, error) {
	var n int
	err := d.sql.QueryRow(`SELECT COUNT(1) FROM credentials WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, vault.IOError("count credential records", err)
	}
	return n > 0, nil
}

// ReadCredential returns the master record for username.
func (d *DB) ReadCredential(username string) (string, error) {
	var record string
	err := d.sql.QueryRow(`SELECT record FROM credentials WHERE username = ?`, username).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %q", vault.ErrVaultNotFound, username)
		}
		return "", vault.IOError("select credential record", err)
	}
	return record, nil
}

// WriteCredential inserts or replaces the master record for username.
func (d *DB) WriteCredential(username, record string) error {
	if err := vault.ValidateUsername(username); err != nil {
		return err
	}
	_, err := d.sql.Exec(
		`INSERT INTO credentials (username, record) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET record = excluded.record, updated_at = CURRENT_TIMESTAMP`,
		username, record,
	)
	if err != nil {
		return vault.IOError("upsert credential record", err)
	}
	return nil
}

// ReadSecrets returns the encrypted blob for username.
func (d *DB) ReadSecrets(username string) ([]byte, error) {
	var blob []byte
	err := d.sql.QueryRow(`SELECT blob FROM secret_blobs WHERE username = ?`, username).Scan(&blob)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vault.ErrBlobNotFound
		}
		return nil, vault.IOError("select secret blob", err)
	}
	return blob, nil
}

// WriteSecrets inserts or replaces the encrypted blob for username.
func (d *DB) WriteSecrets(username string, blob []byte) error {
	if err := vault.ValidateUsername(username); err != nil {
		return err
	}
	_, err := d.sql.Exec(
		`INSERT INTO secret_blobs (username, blob) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET blob = excluded.blob, updated_at = CURRENT_TIMESTAMP`,
		username, blob,
	)
	if err != nil {
		return vault.IOError("upsert secret blob", err)
	}
	return nil
}

// VaultSummary describes a stored vault without exposing its contents.
type VaultSummary struct {
	Username  string
	BlobBytes int
	UpdatedAt string
}

// ListVaults returns one summary per registered username, ordered by name.
func (d *DB) ListVaults() ([]VaultSummary, error) {
	rows, err := d.sql.Query(
		`SELECT c.username, COALESCE(LENGTH(b.blob), 0), COALESCE(b.updated_at, c.updated_at)
		   FROM credentials c
		   LEFT JOIN secret_blobs b ON b.username = c.username
		  ORDER BY c.username`,
	)
	if err != nil {
		return nil, vault.IOError("list vaults", err)
	}
	defer rows.Close()

	var out []VaultSummary
	for rows.Next() {
		var s VaultSummary
		if err := rows.Scan(&s.Username, &s.BlobBytes, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan vault row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vault rows: %w", err)
	}
	return out, nil
}
