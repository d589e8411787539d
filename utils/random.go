package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateCode returns n random bytes as upper-case hex.
func GenerateCode(n int) (string, error) {
	byt, err := GenerateKey(n)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(byt)), nil
}

// GenerateKey returns n random bytes.
func GenerateKey(n int) ([]byte, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return nil, err
	}
	return byt, nil
}
