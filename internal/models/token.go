package models

import "time"

// TokenRecord is a session or password-reset entry keyed by an opaque token.
type TokenRecord struct {
	Token     string    `json:"-"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at the given instant.
func (t TokenRecord) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
