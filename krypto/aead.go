package krypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	blobVersion  = 0x01
	gcmNonceSize = 12
	headerSize   = 1 + 8
	minBlobSize  = headerSize + gcmNonceSize + 16 // header | nonce | GCM tag
)

var (
	// ErrDecryption is returned when a blob was not produced with the given key,
	// or has been truncated, corrupted or tampered with.
	ErrDecryption = errors.New("decryption failed")
	// ErrInvalidKey indicates key material of the wrong size.
	ErrInvalidKey = errors.New("aes-gcm requires a 32-byte key")
)

// Seal encrypts plaintext with AES-256-GCM and returns a self-contained blob:
//
//	version(1) | unix seconds(8, big endian) | nonce(12) | ciphertext+tag
//
// The version and timestamp are authenticated as additional data.
func Seal(key, plaintext []byte) ([]byte, error) {
	return sealAt(key, plaintext, time.Now())
}

func sealAt(key, plaintext []byte, now time.Time) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, headerSize+gcmNonceSize, minBlobSize+len(plaintext))
	blob[0] = blobVersion
	binary.BigEndian.PutUint64(blob[1:headerSize], uint64(now.Unix()))

	nonce := blob[headerSize:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return gcm.Seal(blob, nonce, plaintext, blob[:headerSize]), nil
}

// Open authenticates and decrypts a blob produced by Seal. It never returns
// partial plaintext: every failure wraps ErrDecryption, except a key of the
// wrong size which reports ErrInvalidKey.
func Open(key, blob []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < minBlobSize {
		return nil, fmt.Errorf("%w: blob too short", ErrDecryption)
	}
	if blob[0] != blobVersion {
		return nil, fmt.Errorf("%w: unsupported blob version %d", ErrDecryption, blob[0])
	}

	header := blob[:headerSize]
	nonce := blob[headerSize : headerSize+gcmNonceSize]
	ciphertext := blob[headerSize+gcmNonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}

// BlobTimestamp returns the creation time embedded in a blob header.
// The value is unauthenticated until Open succeeds on the same blob.
func BlobTimestamp(blob []byte) (time.Time, error) {
	if len(blob) < headerSize || blob[0] != blobVersion {
		return time.Time{}, fmt.Errorf("%w: malformed blob header", ErrDecryption)
	}
	secs := binary.BigEndian.Uint64(blob[1:headerSize])
	return time.Unix(int64(secs), 0).UTC(), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
