package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ErrEncryptionFailed is returned when sealing or opening a record fails,
// including decryption with the wrong key.
var ErrEncryptionFailed = errors.New("encryption failed")

// secretBox seals and opens record values with AES-256-GCM. Every seal
// uses a fresh random nonce, prefixed to the ciphertext.
type secretBox struct {
	aead cipher.AEAD
}

func newSecretBox(key []byte) (*secretBox, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}
	return &secretBox{aead: aead}, nil
}

func (b *secretBox) seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: generating nonce: %v", ErrEncryptionFailed, err)
	}
	return b.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (b *secretBox) open(data []byte) ([]byte, error) {
	nonceSize := b.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrEncryptionFailed)
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decryption failed: %v", ErrEncryptionFailed, err)
	}
	return plaintext, nil
}
