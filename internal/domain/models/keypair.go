package models

// KeyPair is freshly generated SSH key material. The gateway does not retain it;
// ownership passes to the caller for persistence.
type KeyPair struct {
	// PublicKey is an OpenSSH authorized_keys line, optionally suffixed with a comment.
	PublicKey string `json:"public_key"`
	// PrivateKey is PKCS#8 PEM text.
	PrivateKey string `json:"private_key"`
}
