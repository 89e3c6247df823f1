package service

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/lockbox/auth"
	"github.com/Hussein-Mazeh/lockbox/internal/config"
	"github.com/Hussein-Mazeh/lockbox/internal/db"
	"github.com/Hussein-Mazeh/lockbox/internal/vault"
	"github.com/Hussein-Mazeh/lockbox/store"
)

// Service exposes the vault operations to the CLI. It owns the storage
// backend and the process-wide key store.
type Service struct {
	*vault.Vault

	opts  *config.Options
	keys  *store.KeyStore
	sql   *db.DB // nil for the filesystem backend
	log   *zap.Logger
	store vault.Store
}

// New wires the backend selected by opts. The caller must Close the service.
func New(opts *config.Options, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}

	hasher, err := auth.NewHasher(opts.Argon2Params())
	if err != nil {
		return nil, err
	}
	gen, err := auth.NewGenerator(opts.GeneratorBounds())
	if err != nil {
		return nil, err
	}

	s := &Service{
		opts: opts,
		keys: store.NewKeyStore(opts.KeyFile, log.Named("keys")),
		log:  log,
	}

	switch opts.Backend {
	case config.BackendSQLite:
		dbPath := filepath.Join(opts.Dir, db.DefaultFilename)
		handle, err := db.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite (%s): %w", dbPath, err)
		}
		s.sql = handle
		s.store = handle
	default:
		s.store = store.NewFS(opts.Dir)
	}

	s.Vault = vault.New(s.store, s.keys, hasher,
		vault.WithLogger(log.Named("vault")),
		vault.WithGenerator(gen),
		vault.WithPolicy(opts.Policy()),
	)

	log.Debug("service ready",
		zap.String("dir", opts.Dir),
		zap.String("backend", string(opts.Backend)),
	)
	return s, nil
}

// Options returns the configuration the service was built with.
func (s *Service) Options() *config.Options { return s.opts }

// Provision creates the vault root and the shared encryption key ahead of the
// first registration.
func (s *Service) Provision() error {
	if err := os.MkdirAll(s.opts.Dir, 0o700); err != nil {
		return vault.IOError("create vault root", err)
	}
	if _, err := s.keys.GetOrCreateKey(); err != nil {
		return fmt.Errorf("provision encryption key: %w", err)
	}
	return nil
}

// Vaults lists registered vaults when the backend can enumerate them.
func (s *Service) Vaults() ([]db.VaultSummary, error) {
	if s.sql != nil {
		return s.sql.ListVaults()
	}
	return listFSVaults(s.opts.Dir)
}

// Close releases the backend.
func (s *Service) Close() error {
	if s.sql != nil {
		return s.sql.Close()
	}
	return nil
}

func listFSVaults(root string) ([]db.VaultSummary, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, vault.IOError("read vault root", err)
	}

	fs := store.NewFS(root)
	var out []db.VaultSummary
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if ok, err := fs.Exists(name); err != nil || !ok {
			continue
		}
		summary := db.VaultSummary{Username: name}
		if info, err := os.Stat(fs.Paths().SecretsPath(name)); err == nil {
			summary.BlobBytes = int(info.Size())
			summary.UpdatedAt = info.ModTime().UTC().Format("2006-01-02 15:04:05")
		}
		out = append(out, summary)
	}
	return out, nil
}
