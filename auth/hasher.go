package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/Hussein-Mazeh/lockbox/krypto"
)

const (
	recordAlgorithm = "argon2id"
	legacyHexLen    = sha256.Size * 2
)

// ErrMalformedRecord is returned when a stored credential record cannot be parsed.
var ErrMalformedRecord = errors.New("malformed credential record")

var b64 = base64.RawStdEncoding

// Hasher turns a master credential into a one-way, single-line record and
// checks attempts against it.
//
// Records have the form
//
//	$argon2id$v=19$m=<KiB>,t=<time>,p=<parallelism>$<salt>$<hash>
//
// with unpadded standard base64 fields. Verify also accepts the legacy format,
// a bare hex SHA-256 digest of the credential.
type Hasher struct {
	params krypto.Argon2Params
}

// NewHasher returns a Hasher deriving new records with p.
func NewHasher(p krypto.Argon2Params) (*Hasher, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("argon2 params: %w", err)
	}
	return &Hasher{params: p}, nil
}

// Hash derives a fresh record for plaintext using a new random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt, err := krypto.NewRandomSalt(h.params.SaltLen)
	if err != nil {
		return "", err
	}

	pw := []byte(plaintext)
	defer krypto.Wipe(pw)

	sum, err := krypto.DeriveKeyArgon2id(pw, salt, h.params)
	if err != nil {
		return "", fmt.Errorf("derive credential hash: %w", err)
	}
	defer krypto.Wipe(sum)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		recordAlgorithm, argon2.Version,
		h.params.MemoryMB*1024, h.params.Time, h.params.Parallelism,
		b64.EncodeToString(salt), b64.EncodeToString(sum),
	), nil
}

// Verify reports whether plaintext matches record. The comparison is
// constant-time; a record that cannot be parsed yields ErrMalformedRecord.
func (h *Hasher) Verify(plaintext, record string) (bool, error) {
	record = strings.TrimSpace(record)
	if isLegacyRecord(record) {
		return verifyLegacy(plaintext, record)
	}

	params, salt, want, err := parseRecord(record)
	if err != nil {
		return false, err
	}

	pw := []byte(plaintext)
	defer krypto.Wipe(pw)
	if len(pw) == 0 {
		return false, nil
	}

	got, err := krypto.DeriveKeyArgon2id(pw, salt, params)
	if err != nil {
		return false, fmt.Errorf("derive credential hash: %w", err)
	}
	defer krypto.Wipe(got)

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// IsLegacy reports whether record uses the unsalted SHA-256 format and should
// be replaced with a fresh Hash on the next successful unlock.
func IsLegacy(record string) bool {
	return isLegacyRecord(strings.TrimSpace(record))
}

func isLegacyRecord(record string) bool {
	if len(record) != legacyHexLen {
		return false
	}
	_, err := hex.DecodeString(record)
	return err == nil
}

func verifyLegacy(plaintext, record string) (bool, error) {
	want, err := hex.DecodeString(record)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	got := sha256.Sum256([]byte(plaintext))
	return subtle.ConstantTimeCompare(got[:], want) == 1, nil
}

func parseRecord(record string) (krypto.Argon2Params, []byte, []byte, error) {
	var p krypto.Argon2Params

	parts := strings.Split(record, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != recordAlgorithm {
		return p, nil, nil, ErrMalformedRecord
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("%w: version: %v", ErrMalformedRecord, err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedRecord, version)
	}

	var memoryKiB uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memoryKiB, &p.Time, &p.Parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %v", ErrMalformedRecord, err)
	}
	if memoryKiB == 0 || memoryKiB%1024 != 0 {
		return p, nil, nil, fmt.Errorf("%w: memory %d KiB", ErrMalformedRecord, memoryKiB)
	}
	p.MemoryMB = memoryKiB / 1024

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedRecord, err)
	}
	sum, err := b64.DecodeString(parts[5])
	if err != nil || len(sum) == 0 {
		return p, nil, nil, fmt.Errorf("%w: hash", ErrMalformedRecord)
	}

	p.SaltLen = len(salt)
	p.KeyLen = uint32(len(sum))
	if err := p.Validate(); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return p, salt, sum, nil
}
