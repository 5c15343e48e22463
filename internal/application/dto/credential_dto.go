package dto

// PassphraseResponse carries a fresh repository passphrase and its sealed form.
type PassphraseResponse struct {
	Passphrase string `json:"passphrase"`
	Encrypted  string `json:"encrypted"`
}

// KeyPairRequest 密钥对生成请求 DTO
type KeyPairRequest struct {
	Comment string `json:"comment" validate:"omitempty,max=255,single_line"`
}

// KeyPairResponse returns the public key line, the PEM private key and the
// sealed private key for storage.
type KeyPairResponse struct {
	PublicKey           string `json:"public_key"`
	PrivateKey          string `json:"private_key"`
	EncryptedPrivateKey string `json:"encrypted_private_key"`
}

// DecryptRequest 解密请求 DTO
type DecryptRequest struct {
	Value string `json:"value" validate:"required"`
}

// DecryptResponse reports the opened value. Decrypted is false when the input
// was not a sealed blob and was returned unchanged.
type DecryptResponse struct {
	Value     string `json:"value"`
	Decrypted bool   `json:"decrypted"`
}

// ServerResponse is the placeholder server lookup result.
type ServerResponse struct {
	ID string `json:"id"`
}
