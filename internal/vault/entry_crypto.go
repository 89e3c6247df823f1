package vault

import (
	"fmt"

	"github.com/Hussein-Mazeh/lockbox/krypto"
)

// sealSecrets encrypts the whole secret map under the vault key.
func sealSecrets(vaultKey []byte, secrets map[string]string) ([]byte, error) {
	plaintext := encodeSecrets(secrets)
	defer zeroize(plaintext)

	blob, err := krypto.Seal(vaultKey, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt secrets: %w", err)
	}
	return blob, nil
}

// openSecrets decrypts and parses a blob. A blob that fails authentication is
// reported as ErrDecryption and never as an empty map.
func openSecrets(vaultKey, blob []byte) (map[string]string, error) {
	plaintext, err := krypto.Open(vaultKey, blob)
	if err != nil {
		return nil, fmt.Errorf("decrypt secrets: %w", err)
	}
	defer zeroize(plaintext)

	secrets, err := decodeSecrets(plaintext)
	if err != nil {
		return nil, err
	}
	return secrets, nil
}

// vaultKeyFor derives the per-vault key from the shared root key.
func (v *Vault) vaultKeyFor(username string) ([]byte, error) {
	root, err := v.keys.GetOrCreateKey()
	if err != nil {
		return nil, fmt.Errorf("load encryption key: %w", err)
	}
	key, err := krypto.DeriveVaultKey(root, username)
	if err != nil {
		return nil, fmt.Errorf("derive vault key: %w", err)
	}
	return key, nil
}

// zeroize overwrites sensitive byte slices in place.
func zeroize(buf []byte) {
	krypto.Wipe(buf)
}
