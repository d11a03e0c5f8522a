package keygen

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"github.com/google/uuid"
)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUUID generates a random UUID v4
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRandomPassword generates a random alphanumeric string of the given length.
func GenerateRandomPassword(length int) string {
	result := make([]byte, length)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range result {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("keygen: crypto/rand unavailable: " + err.Error())
		}
		result[i] = alphanumeric[num.Int64()]
	}
	return string(result)
}

// GenerateHexSecret returns n random bytes hex encoded.
func GenerateHexSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
