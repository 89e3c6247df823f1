package store

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/lockbox/auth"
	"github.com/Hussein-Mazeh/lockbox/internal/vault"
	"github.com/Hussein-Mazeh/lockbox/krypto"
)

func TestFSLayout(t *testing.T) {
	root := t.TempDir()
	fs := NewFS(root)

	exists, err := fs.Exists("alice")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, fs.WriteCredential("alice", "record"))
	require.NoError(t, fs.WriteSecrets("alice", []byte{0x01, 0x02}))

	data, err := os.ReadFile(filepath.Join(root, "alice", "master_password.txt"))
	require.NoError(t, err)
	assert.Equal(t, "record", string(data))

	data, err = os.ReadFile(filepath.Join(root, "alice", "alice.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)

	exists, err = fs.Exists("alice")
	require.NoError(t, err)
	assert.True(t, exists)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(root, "alice", "alice.txt"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
	}
}

func TestFSMissingArtifacts(t *testing.T) {
	fs := NewFS(t.TempDir())

	_, err := fs.ReadCredential("bob")
	assert.ErrorIs(t, err, vault.ErrVaultNotFound)

	_, err = fs.ReadSecrets("bob")
	assert.ErrorIs(t, err, vault.ErrBlobNotFound)
}

func TestFSWriteReplacesWholeFile(t *testing.T) {
	fs := NewFS(t.TempDir())

	require.NoError(t, fs.WriteSecrets("alice", []byte("a much longer first blob")))
	require.NoError(t, fs.WriteSecrets("alice", []byte("short")))

	got, err := fs.ReadSecrets("alice")
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))

	entries, err := os.ReadDir(fs.Paths().UserDir("alice"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFSRejectsUnsafeUsernames(t *testing.T) {
	fs := NewFS(t.TempDir())

	for _, name := range []string{"", "..", "a/b", `a\b`, " alice"} {
		assert.ErrorIs(t, fs.WriteCredential(name, "r"), vault.ErrInvalidUsername, "name %q", name)
	}
}

func TestFSUnwritableRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o600))

	err := NewFS(root).WriteCredential("alice", "record")
	assert.ErrorIs(t, err, vault.ErrIO)
}

func TestVaultOverFS(t *testing.T) {
	root := t.TempDir()
	p := krypto.DefaultArgon2Params()
	p.MemoryMB = 1
	p.Time = 1
	hasher, err := auth.NewHasher(p)
	require.NoError(t, err)

	v := vault.New(NewFS(root), NewKeyStore(filepath.Join(root, KeyFilename), nil), hasher)
	require.NoError(t, v.Create("alice", "Sesame!1"))

	s, err := v.Authenticate("alice", "Sesame!1")
	require.NoError(t, err)
	_, err = v.UpsertSecret(s, "github", "Tr0ub4dor&3")
	require.NoError(t, err)
	s.Lock()

	blob, err := os.ReadFile(filepath.Join(root, "alice", "alice.txt"))
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "Tr0ub4dor&3")

	// A new process: fresh key store instance over the same files.
	v2 := vault.New(NewFS(root), NewKeyStore(filepath.Join(root, KeyFilename), nil), hasher)
	s2, err := v2.Authenticate("alice", "Sesame!1")
	require.NoError(t, err)
	secrets, err := v2.ListSecrets(s2)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"github": "Tr0ub4dor&3"}, secrets)
}
