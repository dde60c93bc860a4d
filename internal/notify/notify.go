// Package notify delivers password reset links to users.
package notify

// Notifier hands a password reset link to the user that owns email.
type Notifier interface {
	SendPasswordReset(toEmail, username, resetURL string) error
}
