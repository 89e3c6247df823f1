package vault

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// encodeSecrets serializes the map as "<account>: <secret>" lines sorted by
// account, so identical maps always produce identical plaintext.
func encodeSecrets(secrets map[string]string) []byte {
	accounts := sortedAccounts(secrets)

	var buf bytes.Buffer
	for _, account := range accounts {
		buf.WriteString(account)
		buf.WriteString(": ")
		buf.WriteString(secrets[account])
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// decodeSecrets parses the line format, splitting on the first ':' and
// dropping exactly one following space. Blank lines are ignored.
func decodeSecrets(data []byte) (map[string]string, error) {
	secrets := make(map[string]string)
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			return nil, fmt.Errorf("%w: line %d has no separator", ErrMalformedSecrets, i+1)
		}
		account := strings.TrimSpace(line[:idx])
		if account == "" {
			return nil, fmt.Errorf("%w: line %d has an empty account", ErrMalformedSecrets, i+1)
		}
		secrets[account] = strings.TrimPrefix(line[idx+1:], " ")
	}
	return secrets, nil
}

func sortedAccounts(secrets map[string]string) []string {
	accounts := make([]string, 0, len(secrets))
	for account := range secrets {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}
