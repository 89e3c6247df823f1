package krypto

import (
	"bytes"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := newTestKey(t)

	for _, plaintext := range [][]byte{
		{},
		[]byte("github: Tr0ub4dor&3\n"),
		bytes.Repeat([]byte("a: b!\n"), 1000),
	} {
		blob, err := Seal(key, plaintext)
		require.NoError(t, err)

		got, err := Open(key, blob)
		require.NoError(t, err)
		assert.Equal(t, len(plaintext), len(got))
		assert.True(t, bytes.Equal(plaintext, got))
	}
}

func TestSealUsesFreshNonce(t *testing.T) {
	key := newTestKey(t)

	a, err := Seal(key, []byte("same"))
	require.NoError(t, err)
	b, err := Seal(key, []byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpenDetectsEveryFlippedByte(t *testing.T) {
	key := newTestKey(t)
	blob, err := Seal(key, []byte("github: Tr0ub4dor&3\n"))
	require.NoError(t, err)

	for i := range blob {
		tampered := bytes.Clone(blob)
		tampered[i] ^= 0x01

		got, err := Open(key, tampered)
		require.ErrorIs(t, err, ErrDecryption, "byte %d", i)
		assert.Nil(t, got)
	}
}

func TestOpenRejectsTruncatedBlob(t *testing.T) {
	key := newTestKey(t)
	blob, err := Seal(key, []byte("payload"))
	require.NoError(t, err)

	for _, n := range []int{0, 1, headerSize, minBlobSize - 1, len(blob) - 1} {
		_, err := Open(key, blob[:n])
		assert.ErrorIs(t, err, ErrDecryption, "length %d", n)
	}
}

func TestOpenWithWrongKey(t *testing.T) {
	blob, err := Seal(newTestKey(t), []byte("payload"))
	require.NoError(t, err)

	_, err = Open(newTestKey(t), blob)
	assert.ErrorIs(t, err, ErrDecryption)
}

func TestInvalidKeySize(t *testing.T) {
	_, err := Seal(make([]byte, 16), []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Open([]byte("short"), make([]byte, minBlobSize))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestBlobTimestamp(t *testing.T) {
	key := newTestKey(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	blob, err := sealAt(key, []byte("x"), at)
	require.NoError(t, err)

	ts, err := BlobTimestamp(blob)
	require.NoError(t, err)
	assert.True(t, at.Equal(ts))

	_, err = BlobTimestamp([]byte{0x02})
	assert.ErrorIs(t, err, ErrDecryption)
}
