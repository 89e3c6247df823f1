package service

import (
	"errors"
	"time"

	"github.com/Hussein-Mazeh/lockbox/auth"
	"github.com/Hussein-Mazeh/lockbox/internal/vault"
	"github.com/Hussein-Mazeh/lockbox/krypto"
)

// VaultReport describes a stored vault without decrypting it.
type VaultReport struct {
	Username  string
	Scheme    string
	BlobBytes int
	SealedAt  time.Time // zero when the blob is missing or unreadable
}

// Inspect reports on every registered vault using only stored metadata.
func (s *Service) Inspect() ([]VaultReport, error) {
	vaults, err := s.Vaults()
	if err != nil {
		return nil, err
	}

	reports := make([]VaultReport, 0, len(vaults))
	for _, v := range vaults {
		r := VaultReport{Username: v.Username}

		record, err := s.store.ReadCredential(v.Username)
		if err != nil {
			return nil, err
		}
		r.Scheme = "argon2id"
		if auth.IsLegacy(record) {
			r.Scheme = "sha256-legacy"
		}

		blob, err := s.store.ReadSecrets(v.Username)
		switch {
		case errors.Is(err, vault.ErrBlobNotFound):
		case err != nil:
			return nil, err
		default:
			r.BlobBytes = len(blob)
			if ts, err := krypto.BlobTimestamp(blob); err == nil {
				r.SealedAt = ts
			}
		}
		reports = append(reports, r)
	}
	return reports, nil
}
