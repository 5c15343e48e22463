// Package crypto provides the credential protection service: symmetric sealing of
// secrets at rest, passphrase and SSH key generation, and password hashing.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
)

var _ service.CredentialService = (*CredentialService)(nil)

// CredentialService is stateless apart from its configuration; it never retains
// keys, plaintexts or generated material.
type CredentialService struct {
	random  io.Reader
	rsaBits int
	argon   Argon2Params
}

// Option configures a CredentialService.
type Option func(*CredentialService)

// WithRandom replaces the secure random source. Intended for tests.
func WithRandom(r io.Reader) Option {
	return func(s *CredentialService) { s.random = r }
}

// WithKeyBits overrides the RSA modulus size of generated key pairs.
func WithKeyBits(bits int) Option {
	return func(s *CredentialService) { s.rsaBits = bits }
}

// WithArgon2Params overrides the password hashing cost parameters.
func WithArgon2Params(p Argon2Params) Option {
	return func(s *CredentialService) { s.argon = p }
}

// NewCredentialService creates a CredentialService reading from crypto/rand.
func NewCredentialService(opts ...Option) *CredentialService {
	s := &CredentialService{
		random:  rand.Reader,
		rsaBits: constants.KeyPairBits,
		argon:   DefaultArgon2Params,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratePassphrase returns base64 of lengthBytes random bytes. A non-positive
// length means the default of 64 bytes.
func (s *CredentialService) GeneratePassphrase(lengthBytes int) (string, error) {
	if lengthBytes <= 0 {
		lengthBytes = constants.DefaultPassphraseBytes
	}
	buf, err := s.randomBytes(lengthBytes)
	if err != nil {
		return "", errors.ErrCryptoOperation("failed to generate passphrase").WithError(err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// randomBytes never falls back to a weaker source: a short read is an error.
func (s *CredentialService) randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
