package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign returns the base64 HMAC-SHA256 of payload.
func Sign(payload, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write(payload)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches payload under key.
func Verify(payload, key []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, key)
	h.Write(payload)
	return hmac.Equal(got, h.Sum(nil))
}
