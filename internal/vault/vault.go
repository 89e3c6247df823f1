// Package vault binds a username to its master credential record and its
// encrypted secret map, and exposes the create, authenticate, list, upsert and
// remove operations over a pluggable Store.
package vault

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/lockbox/auth"
)

// UpsertResult tells the caller whether UpsertSecret inserted or updated.
type UpsertResult int

const (
	Inserted UpsertResult = iota + 1
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Vault composes the persistence, key, hashing and generation collaborators.
type Vault struct {
	store  Store
	keys   KeyStore
	hasher CredentialHasher
	gen    *auth.Generator
	policy auth.Policy
	log    *zap.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger. Secrets and credentials are never logged.
func WithLogger(l *zap.Logger) Option {
	return func(v *Vault) {
		if l != nil {
			v.log = l
		}
	}
}

// WithGenerator replaces the default 8..14 generator.
func WithGenerator(g *auth.Generator) Option {
	return func(v *Vault) {
		if g != nil {
			v.gen = g
		}
	}
}

// WithPolicy sets the composition rules for manually entered secrets.
func WithPolicy(p auth.Policy) Option {
	return func(v *Vault) { v.policy = p }
}

// New returns a Vault. The KeyStore is expected to be constructed once per
// process and shared.
func New(store Store, keys KeyStore, hasher CredentialHasher, opts ...Option) *Vault {
	gen, _ := auth.NewGenerator(auth.DefaultGeneratorBounds())
	v := &Vault{
		store:  store,
		keys:   keys,
		hasher: hasher,
		gen:    gen,
		policy: auth.DefaultPolicy(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Exists reports whether a vault is registered for username.
func (v *Vault) Exists(username string) (bool, error) {
	if err := ValidateUsername(username); err != nil {
		return false, err
	}
	return v.store.Exists(username)
}

// Create registers a new vault with an empty secret map.
func (v *Vault) Create(username, master string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if master == "" {
		return ErrInvalidCredential
	}

	exists, err := v.store.Exists(username)
	if err != nil {
		return fmt.Errorf("check vault %q: %w", username, err)
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrAlreadyExists, username)
	}

	record, err := v.hasher.Hash(master)
	if err != nil {
		return fmt.Errorf("hash master credential: %w", err)
	}
	if err := v.store.WriteCredential(username, record); err != nil {
		return fmt.Errorf("persist credential record: %w", err)
	}

	key, err := v.vaultKeyFor(username)
	if err != nil {
		return err
	}
	defer zeroize(key)

	blob, err := sealSecrets(key, map[string]string{})
	if err != nil {
		return err
	}
	if err := v.store.WriteSecrets(username, blob); err != nil {
		return fmt.Errorf("persist secrets: %w", err)
	}

	v.log.Info("vault created", zap.String("user", username))
	return nil
}

// Authenticate checks attempt against the stored record and, on a match,
// decrypts the secret map into a new Session. Unknown usernames return
// ErrVaultNotFound; a mismatch on an existing vault returns ErrWrongCredential.
func (v *Vault) Authenticate(username, attempt string) (*Session, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	record, err := v.store.ReadCredential(username)
	if err != nil {
		return nil, fmt.Errorf("load credential record: %w", err)
	}

	ok, err := v.hasher.Verify(attempt, record)
	if err != nil {
		return nil, fmt.Errorf("verify credential: %w", err)
	}
	if !ok {
		v.log.Warn("authentication failed", zap.String("user", username))
		return nil, ErrWrongCredential
	}

	if auth.IsLegacy(record) {
		v.upgradeRecord(username, attempt)
	}

	key, err := v.vaultKeyFor(username)
	if err != nil {
		return nil, err
	}

	secrets, err := v.loadSecrets(username, key)
	if err != nil {
		zeroize(key)
		return nil, err
	}

	s := newSession(username, key, secrets)
	v.log.Info("vault unlocked",
		zap.String("user", username),
		zap.String("session", s.ID()),
		zap.Int("accounts", len(secrets)),
	)
	return s, nil
}

func (v *Vault) loadSecrets(username string, key []byte) (map[string]string, error) {
	blob, err := v.store.ReadSecrets(username)
	if errors.Is(err, ErrBlobNotFound) {
		v.log.Warn("secret blob missing, opening empty vault", zap.String("user", username))
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	return openSecrets(key, blob)
}

// upgradeRecord replaces an unsalted legacy record after a successful match.
// Failure leaves the legacy record in place and is only logged.
func (v *Vault) upgradeRecord(username, master string) {
	record, err := v.hasher.Hash(master)
	if err == nil {
		err = v.store.WriteCredential(username, record)
	}
	if err != nil {
		v.log.Warn("credential record upgrade failed", zap.String("user", username), zap.Error(err))
		return
	}
	v.log.Info("credential record upgraded", zap.String("user", username))
}

// ListSecrets returns a copy of the plaintext secret map.
func (v *Vault) ListSecrets(s *Session) (map[string]string, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()
	return s.snapshot(), nil
}

// UpsertSecret inserts or updates account and re-persists the whole map.
// The session only reflects the change once the write succeeded.
func (v *Vault) UpsertSecret(s *Session, account, secret string) (UpsertResult, error) {
	if err := s.acquire(); err != nil {
		return 0, err
	}
	defer s.release()

	account, err := normalizeAccount(account)
	if err != nil {
		return 0, err
	}
	if err := v.policy.Validate(secret); err != nil {
		return 0, fmt.Errorf("secret for %q: %w", account, err)
	}

	next := s.snapshot()
	result := Inserted
	if _, ok := next[account]; ok {
		result = Updated
	}
	next[account] = secret

	if err := v.persist(s, next); err != nil {
		return 0, err
	}
	s.secrets = next

	v.log.Info("secret stored",
		zap.String("session", s.ID()),
		zap.String("account", account),
		zap.Stringer("result", result),
	)
	return result, nil
}

// RemoveSecret deletes account and re-persists the whole map.
func (v *Vault) RemoveSecret(s *Session, account string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	account = normalizeLookup(account)
	next := s.snapshot()
	if _, ok := next[account]; !ok {
		return fmt.Errorf("%w: %q", ErrAccountNotFound, account)
	}
	delete(next, account)

	if err := v.persist(s, next); err != nil {
		return err
	}
	s.secrets = next

	v.log.Info("secret removed", zap.String("session", s.ID()), zap.String("account", account))
	return nil
}

// GenerateSecret returns a random secret; capped reports that length was
// above the generator's maximum.
func (v *Vault) GenerateSecret(length int) (secret string, capped bool, err error) {
	return v.gen.Generate(length)
}

// GeneratorBounds exposes the active generation window for prompts.
func (v *Vault) GeneratorBounds() auth.GeneratorBounds {
	return v.gen.Bounds()
}

func (v *Vault) persist(s *Session, secrets map[string]string) error {
	blob, err := sealSecrets(s.key, secrets)
	if err != nil {
		return err
	}
	if err := v.store.WriteSecrets(s.username, blob); err != nil {
		return fmt.Errorf("persist secrets: %w", err)
	}
	return nil
}
