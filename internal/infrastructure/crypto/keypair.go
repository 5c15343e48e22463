package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/pkg/errors"
)

// GenerateKeyPair creates an RSA key pair for SSH access to a backup server.
// The private key is PKCS#8 PEM; the public key is an OpenSSH authorized_keys
// line with the optional comment appended. Either both halves are returned or
// neither is.
func (s *CredentialService) GenerateKeyPair(comment string) (*models.KeyPair, error) {
	privateKey, err := rsa.GenerateKey(s.random, s.rsaBits)
	if err != nil {
		return nil, errors.ErrCryptoOperation("failed to generate RSA key").WithError(err)
	}

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, errors.ErrCryptoOperation("failed to export private key").WithError(err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if privatePEM == nil {
		return nil, errors.ErrCryptoOperation("failed to encode private key")
	}

	sshPublic, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, errors.ErrCryptoOperation("failed to extract public key details").WithError(err)
	}
	publicKey := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPublic)))
	if c := strings.TrimSpace(comment); c != "" {
		publicKey += " " + c
	}

	return &models.KeyPair{
		PublicKey:  publicKey,
		PrivateKey: string(privatePEM),
	}, nil
}
