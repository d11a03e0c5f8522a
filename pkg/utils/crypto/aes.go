package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

var (
	ErrInvalidKey        = errors.New("crypto: invalid encryption key")
	ErrEncryptionFailed  = errors.New("crypto: encryption failed")
	ErrDecryptionFailed  = errors.New("crypto: decryption failed")
	ErrInvalidCipherText = errors.New("crypto: invalid cipher text")
)

func newGCM(key string) (cipher.AEAD, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plainText with AES-256-GCM. label is authenticated but not
// encrypted, so a value sealed for one setting key cannot be replayed under another.
func Seal(plainText, key, label string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		if errors.Is(err, ErrInvalidKey) {
			return "", err
		}
		return "", ErrEncryptionFailed
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ErrEncryptionFailed
	}

	out := gcm.Seal(nonce, nonce, []byte(plainText), []byte(label))
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. The same label must be supplied.
func Open(cipherText, key, label string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		if errors.Is(err, ErrInvalidKey) {
			return "", err
		}
		return "", ErrDecryptionFailed
	}

	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return "", ErrInvalidCipherText
	}
	if len(data) < gcm.NonceSize() {
		return "", ErrInvalidCipherText
	}

	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plainText, err := gcm.Open(nil, nonce, sealed, []byte(label))
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plainText), nil
}
