package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/filevault-be/internal/config"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("email config missing")

// Sender delivers a composed message. gomail's Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier sends reset links over SMTP.
type EmailNotifier struct {
	cfg    config.SMTPConfig
	sender Sender
}

// NewEmailNotifier creates a notifier that dials the configured SMTP server.
func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendPasswordReset composes and sends the reset email.
func (n *EmailNotifier) SendPasswordReset(toEmail, username, resetURL string) error {
	if !n.cfg.Enabled() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "File Vault - password reset")
	m.SetBody("text/plain", resetBody(username, resetURL))

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	log.Info().Str("to", toEmail).Str("username", username).Msg("Password reset email sent")
	return nil
}

// LogNotifier only logs the reset link. It is used when no SMTP server is configured.
type LogNotifier struct{}

// SendPasswordReset logs the link instead of delivering it.
func (LogNotifier) SendPasswordReset(toEmail, username, resetURL string) error {
	log.Warn().Str("to", toEmail).Str("username", username).Str("reset_url", resetURL).
		Msg("SMTP not configured, password reset link logged instead of sent")
	return nil
}

func resetBody(username, resetURL string) string {
	return fmt.Sprintf(`Hello %s,

A password reset was requested for your File Vault account.

Open the link below to choose a new password (valid for one hour):
%s

If you did not request a reset you can ignore this email.
`, username, resetURL)
}
