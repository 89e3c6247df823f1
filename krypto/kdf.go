package krypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// MinSaltBits ensures salts are at least 92 bits (rounded to 12 bytes).
	MinSaltBits = 92
	// MinSaltBytes is the smallest accepted salt length in bytes.
	MinSaltBytes = (MinSaltBits + 7) / 8 // 12 bytes
	// DefaultSaltBytes is the salt length used for new credential records.
	DefaultSaltBytes = 16
)

// Argon2Params captures tunable parameters for Argon2id.
type Argon2Params struct {
	MemoryMB    uint32
	Time        uint32
	Parallelism uint8
	SaltLen     int
	KeyLen      uint32
}

// DefaultArgon2Params returns sane defaults for deriving a 256-bit key.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryMB:    64,
		Time:        3,
		Parallelism: 1,
		SaltLen:     DefaultSaltBytes,
		KeyLen:      32,
	}
}

// Validate reports whether the parameters can be used for derivation.
func (p Argon2Params) Validate() error {
	if p.KeyLen == 0 {
		return errors.New("key length must be positive")
	}
	if p.MemoryMB == 0 {
		return errors.New("memory parameter must be positive")
	}
	if p.Time == 0 {
		return errors.New("time parameter must be positive")
	}
	if p.Parallelism == 0 {
		return errors.New("parallelism must be positive")
	}
	if p.SaltLen < MinSaltBytes {
		return fmt.Errorf("salt must be at least %d bytes (>= %d bits)", MinSaltBytes, MinSaltBits)
	}
	return nil
}

// DeriveKeyArgon2id derives a key using Argon2id with the provided parameters.
func DeriveKeyArgon2id(password []byte, salt []byte, p Argon2Params) ([]byte, error) {
	if len(password) == 0 {
		return nil, errors.New("password is required")
	}
	if len(salt) < MinSaltBytes {
		return nil, fmt.Errorf("salt must be at least %d bytes (>= %d bits)", MinSaltBytes, MinSaltBits)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key := argon2.IDKey(password, salt, p.Time, p.MemoryMB*1024, p.Parallelism, p.KeyLen)
	if uint32(len(key)) != p.KeyLen {
		return nil, fmt.Errorf("derived key has unexpected length %d", len(key))
	}
	return key, nil
}

// NewRandomSalt returns a cryptographically secure random salt of length n
// bytes. Lengths below MinSaltBytes are raised to it.
func NewRandomSalt(n int) ([]byte, error) {
	if n < MinSaltBytes {
		n = MinSaltBytes
	}
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// Wipe overwrites sensitive byte slices in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
