package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

//nolint:gochecknoglobals // sentinel error
var ErrInvalidKey = errors.New("secrets: invalid encryption key")

// Codec encrypts sensitive employee fields using AES-256-GCM.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a Codec with the given 32-byte encryption key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewCodec: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewCodec: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// NewCodecFromHex parses a 64 character hex key.
func NewCodecFromHex(hexKey string) (*Codec, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secrets.NewCodecFromHex: %w", ErrInvalidKey)
	}
	return NewCodec(key)
}

// Encode encrypts plaintext and returns base64(nonce || ciphertext).
// Two calls with the same input produce different output.
func (c *Codec) Encode(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets.Encode: generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode reverses Encode. It reports false for malformed, truncated,
// tampered or foreign-key ciphertext instead of returning an error, so one
// corrupted column cannot fail a whole listing.
func (c *Codec) Decode(ciphertext string) (string, bool) {
	if ciphertext == "" {
		return "", false
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", false
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", false
	}

	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", false
	}

	return string(plaintext), true
}

// EncodeOptional encrypts a value that may be absent. Empty input stays empty.
func (c *Codec) EncodeOptional(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	return c.Encode(plaintext)
}

// Reveal returns the plaintext, or nil when the value is absent or cannot
// be decoded.
func (c *Codec) Reveal(ciphertext string) *string {
	plain, ok := c.Decode(ciphertext)
	if !ok {
		return nil
	}
	return &plain
}

// Masked decodes internally and returns only the masked display form.
func (c *Codec) Masked(kind Kind, ciphertext string) *string {
	plain, ok := c.Decode(ciphertext)
	if !ok {
		return nil
	}
	m := Mask(kind, plain)
	return &m
}
