package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/lockbox/internal/config"
	"github.com/Hussein-Mazeh/lockbox/internal/service"
	"github.com/Hussein-Mazeh/lockbox/internal/vault"
)

func newTestService(t *testing.T) *service.Service {
	t.Helper()
	opts := config.Default()
	opts.Dir = filepath.Join(t.TempDir(), "passwords")
	opts.KeyFile = filepath.Join(opts.Dir, "encryption_key.txt")
	opts.Argon2.MemoryMB = 1
	opts.Argon2.Time = 1

	svc, err := service.New(&opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func runShell(t *testing.T, svc *service.Service, s *vault.Session, script string) (stdout, stderr string) {
	t.Helper()
	var out, prompts bytes.Buffer
	sh := &shell{
		in:         newScriptedPrompter(strings.NewReader(script), &prompts),
		out:        &out,
		v:          svc,
		s:          s,
		defaultLen: svc.Options().DefaultGenLength,
	}
	require.NoError(t, sh.run())
	return out.String(), prompts.String()
}

func TestShellSession(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Create("alice", "Sesame!1"))
	s, err := svc.Authenticate("alice", "Sesame!1")
	require.NoError(t, err)

	script := strings.Join([]string{
		"add github",
		"ab!cd",
		"ab!cd",
		"gen mail 40",
		"add github",
		"y",
		"xy!z9",
		"xy!z9",
		"list",
		"rm mail",
		"rm mail",
		"add short",
		"ab",
		"ab",
		"exit",
	}, "\n") + "\n"

	stdout, stderr := runShell(t, svc, s, script)

	assert.Contains(t, stdout, "inserted github")
	assert.Contains(t, stdout, "updated github")
	assert.Contains(t, stdout, "Account: github\nSecret:  xy!z9")
	assert.Contains(t, stdout, "removed mail")
	assert.Contains(t, stderr, "length capped to 14")
	assert.Contains(t, stderr, "account not found")
	assert.Contains(t, stderr, "secret is too short")

	secrets, err := svc.ListSecrets(s)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"github": "xy!z9"}, secrets)

	// A fresh session reads what the shell persisted.
	s2, err := svc.Authenticate("alice", "Sesame!1")
	require.NoError(t, err)
	persisted, err := svc.ListSecrets(s2)
	require.NoError(t, err)
	assert.Equal(t, secrets, persisted)
}

func TestShellKeepsSecretWhenOverwriteDeclined(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Create("bob", "Sesame!1"))
	s, err := svc.Authenticate("bob", "Sesame!1")
	require.NoError(t, err)
	_, err = svc.UpsertSecret(s, "bank", "old!pw")
	require.NoError(t, err)

	_, stderr := runShell(t, svc, s, "gen bank\nmaybe\nn\nquit\n")
	assert.Contains(t, stderr, "please answer y or n")

	secrets, err := svc.ListSecrets(s)
	require.NoError(t, err)
	assert.Equal(t, "old!pw", secrets["bank"])
}

func TestShellEndsOnEOF(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Create("carol", "Sesame!1"))
	s, err := svc.Authenticate("carol", "Sesame!1")
	require.NoError(t, err)

	stdout, stderr := runShell(t, svc, s, "list\nbogus")
	assert.Contains(t, stdout, "no secrets stored")
	assert.Contains(t, stderr, "unknown command: bogus")
}

func TestShellRejectsLockedSession(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.Create("dave", "Sesame!1"))
	s, err := svc.Authenticate("dave", "Sesame!1")
	require.NoError(t, err)
	s.Lock()

	_, stderr := runShell(t, svc, s, "list\n")
	assert.Contains(t, stderr, vault.ErrNotUnlocked.Error())
}
