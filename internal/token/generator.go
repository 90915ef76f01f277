package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SecureTokenBytes is the entropy of one-shot tokens before encoding.
const SecureTokenBytes = 32

// GenerateSecure returns an opaque URL-safe token for reset and verification flows.
func GenerateSecure() (string, error) {
	buf := make([]byte, SecureTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
