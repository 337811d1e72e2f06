package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomToken returns a URL-safe token with length random bytes of
// entropy. 32 bytes gives the 256 bits required for OAuth state values.
func GenerateRandomToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
