// Package crypto encrypts user locations at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// scrypt cost parameters.
const (
	scryptN = 1 << 14
	scryptR = 8
	scryptP = 1
	keyLen  = 32
)

// ErrMalformed is returned for ciphertexts that are not nonceHex:cipherHex.
var ErrMalformed = errors.New("malformed ciphertext")

// LocationCipher encrypts with AES-256-GCM under a key derived by scrypt.
type LocationCipher struct {
	aead cipher.AEAD
}

// NewLocationCipher derives the key from secret and salt.
func NewLocationCipher(secret, salt string) (*LocationCipher, error) {
	if secret == "" {
		return nil, errors.New("location secret is empty")
	}
	key, err := scrypt.Key([]byte(secret), []byte(salt), scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &LocationCipher{aead: aead}, nil
}

// Encrypt returns nonceHex:cipherHex.
func (c *LocationCipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plain), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered input fails authentication.
func (c *LocationCipher) Decrypt(encoded string) (string, error) {
	nonceHex, sealedHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return "", ErrMalformed
	}
	nonce, err := hex.DecodeString(nonceHex)
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrMalformed
	}
	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", ErrMalformed
	}
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plain), nil
}
