package crypto

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/turtacn/backupgw/pkg/errors"
)

// Argon2Params are the argon2id cost parameters. They are embedded in every
// hash so verification is self-describing.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params match the common PHC defaults for interactive logins.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Iterations:  4,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// upper bounds applied when parsing a stored hash
const (
	maxArgon2Memory     = 1 << 21 // 2 GiB
	maxArgon2Iterations = 64
)

// HashPassword returns a PHC formatted argon2id hash with a fresh random salt.
func (s *CredentialService) HashPassword(password string) (string, error) {
	salt, err := s.randomBytes(int(s.argon.SaltLength))
	if err != nil {
		return "", errors.ErrCryptoOperation("failed to generate password salt").WithError(err)
	}
	p := s.argon
	sum := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// VerifyPassword recomputes the hash with the parameters embedded in encoded and
// compares in constant time. A malformed hash never verifies.
func (s *CredentialService) VerifyPassword(password, encoded string) bool {
	p, salt, want, err := decodeArgon2Hash(encoded)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func decodeArgon2Hash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("invalid version segment: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("invalid parameter segment: %w", err)
	}
	if p.Memory == 0 || p.Memory > maxArgon2Memory || p.Iterations == 0 ||
		p.Iterations > maxArgon2Iterations || p.Parallelism == 0 {
		return p, nil, nil, fmt.Errorf("argon2 parameters out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, fmt.Errorf("invalid salt")
	}
	sum, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(sum) == 0 {
		return p, nil, nil, fmt.Errorf("invalid hash")
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(sum))

	return p, salt, sum, nil
}
