package vault

import (
	"maps"
	"sync"

	"github.com/google/uuid"
)

// Session is an unlocked vault. It holds the derived vault key and the
// plaintext secret map in memory until Lock is called.
type Session struct {
	id       string
	username string

	mu      sync.Mutex
	key     []byte
	secrets map[string]string
	locked  bool
}

func newSession(username string, key []byte, secrets map[string]string) *Session {
	return &Session{
		id:       uuid.NewString(),
		username: username,
		key:      key,
		secrets:  secrets,
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Username returns the owner of the unlocked vault.
func (s *Session) Username() string { return s.username }

// Unlocked reports whether the session can still be used.
func (s *Session) Unlocked() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.locked
}

// Accounts returns the account names in sorted order.
func (s *Session) Accounts() ([]string, error) {
	if s == nil {
		return nil, ErrNotUnlocked
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return nil, ErrNotUnlocked
	}
	return sortedAccounts(s.secrets), nil
}

// Lock wipes the vault key, drops the plaintext map and returns the vault to
// the registered-locked state. Locking twice is a no-op.
func (s *Session) Lock() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return
	}
	zeroize(s.key)
	s.key = nil
	clear(s.secrets)
	s.secrets = nil
	s.locked = true
}

// acquire locks the session mutex for a read-mutate-write cycle. The caller
// must call release.
func (s *Session) acquire() error {
	if s == nil {
		return ErrNotUnlocked
	}
	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		return ErrNotUnlocked
	}
	return nil
}

func (s *Session) release() { s.mu.Unlock() }

func (s *Session) snapshot() map[string]string {
	return maps.Clone(s.secrets)
}
