package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength  = 16
	iterations  = 2
	memory      = 19 * 1024
	parallelism = 1
	keyLength   = 32
)

// HashPassword returns a "salt$digest" string for the password using a fresh random salt.
func HashPassword(password string) (string, error) {
	raw := make([]byte, saltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	salt := hex.EncodeToString(raw)
	return salt + "$" + digest(password, salt), nil
}

// VerifyPassword recomputes the digest with the stored salt and compares it in constant time.
func VerifyPassword(password, encoded string) bool {
	salt, stored, ok := strings.Cut(encoded, "$")
	if !ok || salt == "" || stored == "" {
		return false
	}
	computed := digest(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1
}

// digest hashes the password concatenated with its salt.
func digest(password, salt string) string {
	key := argon2.IDKey([]byte(password+salt), []byte(salt), iterations, memory, parallelism, keyLength)
	return hex.EncodeToString(key)
}
