package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenSize is the number of random bytes behind every session and reset token.
const TokenSize = 32

// GenerateToken creates a URL-safe token from TokenSize bytes of crypto/rand output.
func GenerateToken() (string, error) {
	buf := make([]byte, TokenSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
