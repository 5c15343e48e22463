package crypto

import (
	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/errors"
)

// Sealer binds the credential service to the process-wide derived key. The key
// is computed once at startup and only read afterwards.
type Sealer struct {
	creds service.CredentialService
	key   []byte
}

// NewSealer derives the process key from secret. An empty secret is a
// configuration error.
func NewSealer(creds service.CredentialService, secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.ErrConfiguration("shared secret for key derivation is empty")
	}
	return &Sealer{creds: creds, key: creds.DeriveKey(secret)}, nil
}

// Seal encrypts plaintext under the process key.
func (s *Sealer) Seal(plaintext string) (string, error) {
	return s.creds.Encrypt(plaintext, s.key)
}

// Unseal decrypts a stored value, passing legacy clear-text values through.
// The bool reports whether decryption actually happened.
func (s *Sealer) Unseal(value string) (string, bool) {
	return s.creds.Open(value, s.key)
}
