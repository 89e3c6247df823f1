package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/Hussein-Mazeh/lockbox/internal/vault"
)

const (
	credentialFilename = "master_password.txt"
	secretsExt         = ".txt"

	dirPerm  = 0o700
	filePerm = 0o600
)

var _ vault.Store = (*FS)(nil)

// Paths locates vault artifacts on disk:
//
//	<Root>/<username>/master_password.txt
//	<Root>/<username>/<username>.txt
type Paths struct {
	Root string
}

// UserDir resolves the per-user directory.
func (p Paths) UserDir(username string) string {
	return filepath.Join(p.Root, username)
}

// CredentialPath resolves the master record path.
func (p Paths) CredentialPath(username string) string {
	return filepath.Join(p.UserDir(username), credentialFilename)
}

// SecretsPath resolves the encrypted blob path.
func (p Paths) SecretsPath(username string) string {
	return filepath.Join(p.UserDir(username), username+secretsExt)
}

func (p Paths) ensureUserDir(username string) error {
	if p.Root == "" {
		return errors.New("vault root directory not specified")
	}
	if err := os.MkdirAll(p.UserDir(username), dirPerm); err != nil {
		return vault.IOError("create vault directory", err)
	}
	return nil
}

// FS is the file-backed vault.Store.
type FS struct {
	paths Paths
}

// NewFS returns a Store rooted at root.
func NewFS(root string) *FS {
	return &FS{paths: Paths{Root: root}}
}

// Paths exposes the layout used by the store.
func (s *FS) Paths() Paths { return s.paths }

// Exists reports whether a master record is present for username.
func (s *FS) Exists(username string) (bool, error) {
	if err := vault.ValidateUsername(username); err != nil {
		return false, err
	}
	_, err := os.Stat(s.paths.CredentialPath(username))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, vault.IOError("stat credential record", err)
	}
}

// ReadCredential reads the single-line master record.
func (s *FS) ReadCredential(username string) (string, error) {
	if err := vault.ValidateUsername(username); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.paths.CredentialPath(username))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", vault.ErrVaultNotFound, username)
		}
		return "", vault.IOError("read credential record", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteCredential replaces the master record.
func (s *FS) WriteCredential(username, record string) error {
	if err := vault.ValidateUsername(username); err != nil {
		return err
	}
	if err := s.paths.ensureUserDir(username); err != nil {
		return err
	}
	return writeWhole(s.paths.CredentialPath(username), []byte(record))
}

// ReadSecrets reads the encrypted blob.
func (s *FS) ReadSecrets(username string) ([]byte, error) {
	if err := vault.ValidateUsername(username); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.paths.SecretsPath(username))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, vault.ErrBlobNotFound
		}
		return nil, vault.IOError("read secrets", err)
	}
	return data, nil
}

// WriteSecrets replaces the encrypted blob.
func (s *FS) WriteSecrets(username string, blob []byte) error {
	if err := vault.ValidateUsername(username); err != nil {
		return err
	}
	if err := s.paths.ensureUserDir(username); err != nil {
		return err
	}
	return writeWhole(s.paths.SecretsPath(username), blob)
}

// writeWhole replaces path atomically so a crash leaves either the old or the
// new content, never a partial file.
func writeWhole(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return vault.IOError("write "+filepath.Base(path), err)
	}
	if err := os.Chmod(path, filePerm); err != nil {
		return vault.IOError("chmod "+filepath.Base(path), err)
	}
	return nil
}
