// Package crypto encrypts values stored at rest (aggregator access tokens,
// SSNs) and derives opaque shareable account ids.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidKey         = errors.New("encryption key must be 32 bytes")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Encryptor performs AES-256-GCM encryption with a random nonce per value.
type Encryptor struct {
	aead cipher.AEAD
}

func NewEncryptor(key string) (*Encryptor, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// Encrypt returns base64(nonce || ciphertext). Empty input stays empty.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	return e.encrypt(plaintext, base64.StdEncoding)
}

func (e *Encryptor) Decrypt(encoded string) (string, error) {
	return e.decrypt(encoded, base64.StdEncoding)
}

// EncryptID produces a URL-safe opaque token for an identifier that is handed
// to other users, such as a shareable account id.
func (e *Encryptor) EncryptID(id string) (string, error) {
	return e.encrypt(id, base64.RawURLEncoding)
}

func (e *Encryptor) DecryptID(token string) (string, error) {
	return e.decrypt(token, base64.RawURLEncoding)
}

func (e *Encryptor) encrypt(plaintext string, enc *base64.Encoding) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return enc.EncodeToString(sealed), nil
}

func (e *Encryptor) decrypt(encoded string, enc *base64.Encoding) (string, error) {
	if encoded == "" {
		return "", nil
	}
	data, err := enc.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	nonceSize := e.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertextTooShort
	}
	plaintext, err := e.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
