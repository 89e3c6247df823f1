package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/lockbox/internal/vault"
	"github.com/Hussein-Mazeh/lockbox/krypto"
)

// KeyFilename is the default name of the shared root key file.
const KeyFilename = "encryption_key.txt"

// ErrEmptyKey indicates a key file that exists but holds no bytes.
var ErrEmptyKey = errors.New("encryption key file is empty")

var _ vault.KeyStore = (*KeyStore)(nil)

// KeyStore loads the root encryption key from disk, creating it on first use.
// Construct one per process and share it.
type KeyStore struct {
	path string
	log  *zap.Logger

	mu  sync.Mutex
	key []byte
}

// NewKeyStore returns a KeyStore for the key file at path.
func NewKeyStore(path string, log *zap.Logger) *KeyStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &KeyStore{path: path, log: log}
}

// Path returns the key file location.
func (k *KeyStore) Path() string { return k.path }

// GetOrCreateKey returns the raw key bytes. An existing file is returned
// verbatim; otherwise a fresh random key is persisted first. Once loaded the
// key is served from memory.
func (k *KeyStore) GetOrCreateKey() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		return k.key, nil
	}

	data, err := os.ReadFile(k.path)
	switch {
	case err == nil:
		if len(data) == 0 {
			return nil, fmt.Errorf("%s: %w", k.path, ErrEmptyKey)
		}
		k.key = data
		return k.key, nil
	case !errors.Is(err, os.ErrNotExist):
		return nil, vault.IOError("read encryption key", err)
	}

	key := make([]byte, krypto.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate encryption key: %w", err)
	}

	if dir := filepath.Dir(k.path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, vault.IOError("create key directory", err)
		}
	}
	if err := writeWhole(k.path, key); err != nil {
		return nil, err
	}

	k.log.Info("encryption key created", zap.String("path", k.path))
	k.key = key
	return k.key, nil
}
