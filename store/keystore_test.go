package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/lockbox/internal/vault"
	"github.com/Hussein-Mazeh/lockbox/krypto"
)

func TestKeyStoreCreatesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", KeyFilename)

	first, err := NewKeyStore(path, nil).GetOrCreateKey()
	require.NoError(t, err)
	assert.Len(t, first, krypto.KeySize)

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, onDisk)

	ks := NewKeyStore(path, nil)
	second, err := ks.GetOrCreateKey()
	require.NoError(t, err)
	third, err := ks.GetOrCreateKey()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, first, third)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
	}
}

func TestKeyStoreReturnsExistingBytesVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), KeyFilename)
	require.NoError(t, os.WriteFile(path, []byte("not-a-valid-key"), 0o600))

	key, err := NewKeyStore(path, nil).GetOrCreateKey()
	require.NoError(t, err)
	assert.Equal(t, []byte("not-a-valid-key"), key)
}

func TestKeyStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), KeyFilename)
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := NewKeyStore(path, nil).GetOrCreateKey()
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestKeyStoreUnreadableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewKeyStore(filepath.Join(blocker, KeyFilename), nil).GetOrCreateKey()
	assert.ErrorIs(t, err, vault.ErrIO)
}
