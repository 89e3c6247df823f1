package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSecretsIsSortedAndStable(t *testing.T) {
	secrets := map[string]string{"zeta": "z!", "alpha": "a!", "mid": "m!"}

	got := string(encodeSecrets(secrets))
	assert.Equal(t, "alpha: a!\nmid: m!\nzeta: z!\n", got)
	assert.Equal(t, got, string(encodeSecrets(secrets)))
	assert.Empty(t, encodeSecrets(map[string]string{}))
}

func TestDecodeSecretsRoundTrip(t *testing.T) {
	for _, secrets := range []map[string]string{
		{},
		{"github": "Tr0ub4dor&3"},
		{"mail box": "has: colon", "spaced": " leading space!", "x": "p"},
	} {
		got, err := decodeSecrets(encodeSecrets(secrets))
		require.NoError(t, err)
		assert.Equal(t, secrets, got)
	}
}

func TestDecodeSecretsLegacyLines(t *testing.T) {
	got, err := decodeSecrets([]byte("github: Tr0ub4dor&3\n\nbank:nospace!\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"github": "Tr0ub4dor&3", "bank": "nospace!"}, got)
}

func TestDecodeSecretsMalformed(t *testing.T) {
	for _, data := range []string{"no separator here\n", ": secret\n"} {
		_, err := decodeSecrets([]byte(data))
		assert.ErrorIs(t, err, ErrMalformedSecrets, "data %q", data)
	}
}

func TestSealOpenSecrets(t *testing.T) {
	key := randomKey(t).key
	secrets := map[string]string{"github": "Tr0ub4dor&3"}

	blob, err := sealSecrets(key, secrets)
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "Tr0ub4dor&3")

	got, err := openSecrets(key, blob)
	require.NoError(t, err)
	assert.Equal(t, secrets, got)

	_, err = openSecrets(randomKey(t).key, blob)
	assert.ErrorIs(t, err, ErrDecryption)
}
