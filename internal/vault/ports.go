package vault

import (
	"fmt"
	"strings"
)

// Store persists the two artifacts of a vault: the master credential record
// and the encrypted secret blob. The two are written independently, each as a
// whole replacement.
type Store interface {
	// Exists reports whether a credential record is persisted for username.
	Exists(username string) (bool, error)
	// ReadCredential returns the record or ErrVaultNotFound.
	ReadCredential(username string) (string, error)
	WriteCredential(username, record string) error
	// ReadSecrets returns the blob or ErrBlobNotFound.
	ReadSecrets(username string) ([]byte, error)
	WriteSecrets(username string, blob []byte) error
}

// KeyStore owns the shared root key.
type KeyStore interface {
	GetOrCreateKey() ([]byte, error)
}

// CredentialHasher hashes master credentials into one-way records.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, record string) (bool, error)
}

// ValidateUsername checks that username is usable as a single path element.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: empty", ErrInvalidUsername)
	case strings.TrimSpace(username) != username:
		return fmt.Errorf("%w: surrounding whitespace", ErrInvalidUsername)
	case username == "." || username == "..":
		return fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	case strings.ContainsAny(username, "/\\\x00\r\n"):
		return fmt.Errorf("%w: %q contains a path separator or control character", ErrInvalidUsername, username)
	}
	return nil
}

func normalizeLookup(account string) string {
	return strings.TrimSpace(account)
}

func normalizeAccount(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAccount)
	}
	if strings.ContainsAny(account, ":\r\n") {
		return "", fmt.Errorf("%w: %q must not contain ':' or line breaks", ErrInvalidAccount, account)
	}
	return account, nil
}
