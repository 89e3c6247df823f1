package krypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const vaultKeyInfo = "lockbox/vault-key/v1:"

// HKDFSHA256 derives key material using HKDF (RFC 5869) with SHA-256.
func HKDFSHA256(key, salt, info []byte, outLen int) ([]byte, error) {
	if outLen <= 0 {
		return nil, errors.New("invalid hkdf length")
	}
	if len(key) == 0 {
		return nil, errors.New("hkdf input key is empty")
	}

	out := make([]byte, outLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, salt, info), out); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return out, nil
}

// DeriveVaultKey scopes the shared root key to a single vault so that blobs of
// different users are encrypted under different keys.
func DeriveVaultKey(root []byte, username string) ([]byte, error) {
	if len(root) != KeySize {
		return nil, ErrInvalidKey
	}
	return HKDFSHA256(root, nil, []byte(vaultKeyInfo+username), KeySize)
}
