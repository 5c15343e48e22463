package crypto

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/turtacn/backupgw/pkg/errors"
)

// failingReader simulates an exhausted or unavailable entropy source.
type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

// testArgon2Params keep the unit tests fast; the defaults are covered separately.
var testArgon2Params = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestService(opts ...Option) *CredentialService {
	return NewCredentialService(append([]Option{WithArgon2Params(testArgon2Params), WithKeyBits(2048)}, opts...)...)
}

func TestGeneratePassphrase(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name      string
		length    int
		wantBytes int
	}{
		{name: "default length", length: 64, wantBytes: 64},
		{name: "non positive uses default", length: 0, wantBytes: 64},
		{name: "custom length", length: 32, wantBytes: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.GeneratePassphrase(tt.length)
			require.NoError(t, err)

			decoded, err := base64.StdEncoding.DecodeString(p)
			require.NoError(t, err)
			assert.Len(t, decoded, tt.wantBytes)
		})
	}
}

func TestGeneratePassphrase_Unique(t *testing.T) {
	svc := newTestService()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		p, err := svc.GeneratePassphrase(64)
		require.NoError(t, err)
		_, dup := seen[p]
		require.False(t, dup, "passphrase repeated")
		seen[p] = struct{}{}
	}
}

func TestGeneratePassphrase_RandomSourceFailure(t *testing.T) {
	svc := newTestService(WithRandom(failingReader{}))

	p, err := svc.GeneratePassphrase(64)
	assert.Empty(t, p)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindCryptoOperation))
}
