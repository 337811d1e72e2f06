package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
)

func Encrypt(plaintext, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	_, err = io.ReadFull(rand.Reader, nonce)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	// Nonce is prepended so Decrypt can recover it.
	finalData := append(nonce, ciphertext...)

	return base64.StdEncoding.EncodeToString(finalData), nil
}

// Decrypt decrypts the base64-encoded ciphertext using AES-GCM with the provided key.
func Decrypt(encryptedData string, key []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// TokenCipher encrypts OAuth credentials at rest with a process-wide key.
type TokenCipher struct {
	key []byte
}

// NewTokenCipher decodes a base64 32-byte key. An empty key falls back to a
// random runtime key, which invalidates stored tokens across restarts and is
// acceptable only for non-persistent dev use.
func NewTokenCipher(encodedKey string) (*TokenCipher, error) {
	if encodedKey == "" {
		slog.Warn("TOKEN_ENCRYPTION_KEY not set, generating runtime key; stored tokens will not survive restart")
		key := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, err
		}
		return &TokenCipher{key: key}, nil
	}

	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, errors.New("token encryption key must be 32 bytes")
	}
	return &TokenCipher{key: key}, nil
}

// Encrypt returns "" for empty input, not an error.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return Encrypt([]byte(plaintext), c.key)
}

// Decrypt returns "" on any failure (corrupt data, wrong key). Callers treat
// "" as "token unavailable" and fail the operation instead of crashing.
func (c *TokenCipher) Decrypt(encrypted string) string {
	if encrypted == "" {
		return ""
	}
	plaintext, err := Decrypt(encrypted, c.key)
	if err != nil {
		slog.Info("token decryption failed", "error", err)
		return ""
	}
	return plaintext
}
