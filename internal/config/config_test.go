package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvConfig, EnvDir, EnvKeyFile, EnvBackend, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func parse(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	opts, err := Load(parse(t))
	require.NoError(t, err)

	assert.Equal(t, "passwords", opts.Dir)
	assert.Equal(t, filepath.Join("passwords", "encryption_key.txt"), opts.KeyFile)
	assert.Equal(t, BackendFS, opts.Backend)
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, 4, opts.ManualMinLength)
	assert.Equal(t, 8, opts.GenMinLength)
	assert.Equal(t, 14, opts.GenMaxLength)
	assert.Equal(t, 12, opts.DefaultGenLength)
	assert.Equal(t, uint32(64), opts.Argon2.MemoryMB)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "lockbox.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{
		"dir": "from-file",
		"backend": "sqlite",
		"log_level": "debug",
		"gen_max_length": 20,
		"argon2": {"memory_mb": 8, "time": 2, "parallelism": 2}
	}`), 0o600))

	t.Setenv(EnvConfig, cfg)
	t.Setenv(EnvDir, "from-env")

	opts, err := Load(parse(t, "--log-level", "error"))
	require.NoError(t, err)

	assert.Equal(t, cfg, opts.Config)
	assert.Equal(t, "from-env", opts.Dir)
	assert.Equal(t, BackendSQLite, opts.Backend)
	assert.Equal(t, "error", opts.LogLevel)
	assert.Equal(t, 20, opts.GenMaxLength)
	assert.Equal(t, uint32(8), opts.Argon2Params().MemoryMB)
	assert.Equal(t, uint8(2), opts.Argon2Params().Parallelism)

	opts, err = Load(parse(t, "--dir", "from-flag", "--key-file", "/tmp/k"))
	require.NoError(t, err)
	assert.Equal(t, "from-flag", opts.Dir)
	assert.Equal(t, "/tmp/k", opts.KeyFile)
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(parse(t, "--backend", "s3"))
	assert.ErrorContains(t, err, "unknown backend")

	cfg := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"gen_min_length": 10, "gen_max_length": 5}`), 0o600))
	_, err = Load(parse(t, "--config", cfg))
	assert.ErrorContains(t, err, "invalid generator bounds")

	_, err = Load(parse(t, "--config", filepath.Join(t.TempDir(), "missing.json")))
	assert.Error(t, err)
}

func TestLoadNilFlagSet(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBackend, "SQLITE")

	opts, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, opts.Backend)
}

func TestDerivedValues(t *testing.T) {
	opts := Default()
	assert.Equal(t, 8, opts.GeneratorBounds().Min)
	assert.Equal(t, 14, opts.GeneratorBounds().Max)
	assert.Equal(t, 4, opts.Policy().MinLength)
}
