package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"regexp"

	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
)

const (
	// minCiphertextChars is the shortest string treated as a possible ciphertext.
	minCiphertextChars = 24
	// minCiphertextBytes is the IV plus at least one byte of cipher output.
	minCiphertextBytes = constants.CipherIVSize + 1
)

var base64Shape = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// DeriveKey hashes the shared secret into a 32-byte AES-256 key. It is
// deterministic, so encrypt and decrypt agree for the same secret.
func (s *CredentialService) DeriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// Encrypt seals plaintext with AES-256-CBC and PKCS#7 padding under a fresh
// random IV and returns base64(iv || ciphertext).
func (s *CredentialService) Encrypt(plaintext string, key []byte) (string, error) {
	if len(key) != constants.CipherKeySize {
		return "", errors.ErrCryptoOperation(
			fmt.Sprintf("encryption key must be %d bytes, got %d", constants.CipherKeySize, len(key)))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", errors.ErrCryptoOperation("failed to initialise cipher").WithError(err)
	}

	iv, err := s.randomBytes(constants.CipherIVSize)
	if err != nil {
		return "", errors.ErrCryptoOperation("failed to generate initialization vector").WithError(err)
	}
	if len(iv) != block.BlockSize() {
		return "", errors.ErrCryptoOperation("initialization vector length does not match block size")
	}

	padded := pkcs7Pad([]byte(plaintext), block.BlockSize())
	out := make([]byte, len(iv)+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(iv):], padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Values that do not look like ciphertext, or that fail
// to decode or decrypt, are returned unchanged: legacy rows were stored in clear
// text and must keep working. It never fails. Use Open to learn which path was taken.
func (s *CredentialService) Decrypt(ciphertext string, key []byte) string {
	plaintext, _ := s.Open(ciphertext, key)
	return plaintext
}

// Open behaves like Decrypt and additionally reports whether the value was
// actually decrypted (true) or passed through unchanged (false).
func (s *CredentialService) Open(ciphertext string, key []byte) (string, bool) {
	if len(ciphertext) < minCiphertextChars || !base64Shape.MatchString(ciphertext) {
		return ciphertext, false
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < minCiphertextBytes {
		return ciphertext, false
	}
	if len(key) != constants.CipherKeySize {
		return ciphertext, false
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return ciphertext, false
	}

	iv, body := raw[:constants.CipherIVSize], raw[constants.CipherIVSize:]
	if len(body)%block.BlockSize() != 0 {
		return ciphertext, false
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	unpadded, ok := pkcs7Unpad(plain, block.BlockSize())
	if !ok {
		return ciphertext, false
	}
	return string(unpadded), true
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, false
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, false
		}
	}
	return data[:len(data)-n], true
}
