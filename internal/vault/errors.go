package vault

import (
	"errors"
	"fmt"

	"github.com/Hussein-Mazeh/lockbox/krypto"
)

var (
	// ErrAlreadyExists is returned by Create when the username is taken.
	ErrAlreadyExists = errors.New("vault already exists")

	// ErrNotFound is the common kind for unknown vaults and unknown accounts.
	ErrNotFound = errors.New("not found")
	// ErrVaultNotFound is returned when no vault is persisted for a username.
	ErrVaultNotFound = fmt.Errorf("vault %w", ErrNotFound)
	// ErrAccountNotFound is returned when an account is absent from the secret map.
	ErrAccountNotFound = fmt.Errorf("account %w", ErrNotFound)

	// ErrWrongCredential is returned by Authenticate when the attempt does not
	// match the stored record of an existing vault.
	ErrWrongCredential = errors.New("credential mismatch")

	// ErrNotUnlocked is returned when an operation receives a nil or locked session.
	ErrNotUnlocked = errors.New("vault not unlocked")

	// ErrDecryption reports a blob that fails authentication under the vault key.
	ErrDecryption = krypto.ErrDecryption

	// ErrIO marks failures of the underlying storage.
	ErrIO = errors.New("storage failure")

	// ErrBlobNotFound is returned by a Store when the secret blob is missing.
	ErrBlobNotFound = errors.New("secret blob not found")

	// ErrMalformedSecrets reports decrypted content that is not an account line set.
	ErrMalformedSecrets = errors.New("malformed secret records")

	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidAccount    = errors.New("invalid account name")
	ErrInvalidCredential = errors.New("master credential cannot be empty")
)

// IOError joins ErrIO with the storage error that caused it.
func IOError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}
