package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateKeyPair(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name        string
		comment     string
		wantComment string
	}{
		{name: "without comment", comment: ""},
		{name: "with comment", comment: "backup@server-42", wantComment: "backup@server-42"},
		{name: "comment is trimmed", comment: "  ops  ", wantComment: "ops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kp, err := svc.GenerateKeyPair(tt.comment)
			require.NoError(t, err)

			block, _ := pem.Decode([]byte(kp.PrivateKey))
			require.NotNil(t, block)
			assert.Equal(t, "PRIVATE KEY", block.Type)
			parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			require.NoError(t, err)
			privateKey, ok := parsed.(*rsa.PrivateKey)
			require.True(t, ok)

			pub, comment, _, _, err := ssh.ParseAuthorizedKey([]byte(kp.PublicKey))
			require.NoError(t, err)
			assert.Equal(t, tt.wantComment, comment)
			assert.Equal(t, ssh.KeyAlgoRSA, pub.Type())
			assert.True(t, strings.HasPrefix(kp.PublicKey, "ssh-rsa "))

			expected, err := ssh.NewPublicKey(&privateKey.PublicKey)
			require.NoError(t, err)
			assert.Equal(t, expected.Marshal(), pub.Marshal())
		})
	}
}

func TestGenerateKeyPair_DefaultsTo4096Bits(t *testing.T) {
	if testing.Short() {
		t.Skip("4096-bit RSA generation is slow")
	}
	kp, err := NewCredentialService().GenerateKeyPair("")
	require.NoError(t, err)

	block, _ := pem.Decode([]byte(kp.PrivateKey))
	require.NotNil(t, block)
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	assert.Equal(t, 4096, parsed.(*rsa.PrivateKey).N.BitLen())
}

func TestGenerateKeyPair_FailureReturnsNothing(t *testing.T) {
	svc := newTestService(WithKeyBits(256))

	kp, err := svc.GenerateKeyPair("comment")
	assert.Error(t, err)
	assert.Nil(t, kp)
}
