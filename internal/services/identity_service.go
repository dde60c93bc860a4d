package services

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/isdelr/filevault-be/internal/auth"
	"github.com/isdelr/filevault-be/internal/models"
	"github.com/isdelr/filevault-be/internal/notify"
	"github.com/isdelr/filevault-be/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSessionTTL    = 24 * time.Hour
	DefaultResetTokenTTL = time.Hour
)

// IdentityServiceProvider defines the interface for account and session management.
type IdentityServiceProvider interface {
	Register(username, password, email string) error
	Login(username, password string) (string, error)
	VerifySession(token string) (string, error)
	Logout(token string) error
	UserInfo(username string) (models.UserInfo, error)
	UpdateEmail(username, email string) error
	RequestPasswordReset(email string) error
	ResetPassword(token, newPassword string) error
	UserDir(username string) (string, error)
}

// IdentityConfig carries the tunables of an IdentityService. Zero values pick the defaults.
type IdentityConfig struct {
	FilesRoot     string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	ResetURLBase  string
}

// IdentityService provides registration, login, sessions and password resets
// on top of the credential, session and reset-token stores.
type IdentityService struct {
	users        *store.UserStore
	sessions     *store.TokenStore
	resetTokens  *store.TokenStore
	notifier     notify.Notifier
	eventService EventServiceProvider
	filesRoot    string
	sessionTTL   time.Duration
	resetTTL     time.Duration
	resetURLBase string
	now          func() time.Time
}

// NewIdentityService creates a new IdentityService. The files root is made
// absolute so every user directory it hands out is absolute too.
func NewIdentityService(users *store.UserStore, sessions, resetTokens *store.TokenStore, notifier notify.Notifier, eventService EventServiceProvider, cfg IdentityConfig) (*IdentityService, error) {
	root, err := filepath.Abs(cfg.FilesRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve files root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create files root: %w", err)
	}
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	s := &IdentityService{
		users:        users,
		sessions:     sessions,
		resetTokens:  resetTokens,
		notifier:     notifier,
		eventService: eventService,
		filesRoot:    root,
		sessionTTL:   cfg.SessionTTL,
		resetTTL:     cfg.ResetTokenTTL,
		resetURLBase: cfg.ResetURLBase,
		now:          time.Now,
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	if s.resetTTL <= 0 {
		s.resetTTL = DefaultResetTokenTTL
	}
	return s, nil
}

// Register creates a new account and its root directory.
func (s *IdentityService) Register(username, password, email string) error {
	if username == "" || password == "" || email == "" {
		return ErrMissingField
	}
	if !validName(username) {
		return fmt.Errorf("username %q cannot be used as a directory name: %w", username, ErrInvalidInput)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return ioFailure("hash password", err)
	}

	user := models.User{
		PasswordHash: hash,
		Email:        email,
		CreatedAt:    s.now(),
		IsVerified:   false,
		UserDir:      username,
	}
	if err := s.users.Create(username, user); err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			return ErrDuplicateUsername
		case errors.Is(err, store.ErrEmailTaken):
			return ErrDuplicateEmail
		}
		return ioFailure("save user", err)
	}

	if err := os.MkdirAll(filepath.Join(s.filesRoot, user.UserDir), 0o755); err != nil {
		return ioFailure("create user directory", err)
	}

	log.Info().Str("username", username).Msg("User registered")
	recordEvent(s.eventService, "user.register", "info", "Account created.", username)
	return nil
}

// Login verifies the credentials and issues a new session token.
func (s *IdentityService) Login(username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingField
	}

	user, err := s.users.Get(username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", ioFailure("load user", err)
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		recordEvent(s.eventService, "user.login.fail", "warn", "Failed login attempt.", username)
		return "", ErrBadPassword
	}

	now := s.now()
	err = s.users.Update(username, func(u *models.User) error {
		u.LastLogin = &now
		return nil
	})
	if err != nil {
		return "", ioFailure("update last login", err)
	}

	session, err := s.sessions.Issue(username, s.sessionTTL)
	if err != nil {
		return "", ioFailure("create session", err)
	}

	recordEvent(s.eventService, "user.login", "info", "Signed in.", username)
	return session.Token, nil
}

// VerifySession returns the username owning token. Absent and expired tokens
// yield ErrSessionInvalid; an expired token is evicted by the same call.
func (s *IdentityService) VerifySession(token string) (string, error) {
	if token == "" {
		return "", ErrSessionInvalid
	}
	session, err := s.sessions.CheckAndEvict(token)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) || errors.Is(err, store.ErrTokenExpired) {
			return "", ErrSessionInvalid
		}
		return "", ioFailure("load session", err)
	}
	return session.Username, nil
}

// Logout deletes the session behind token.
func (s *IdentityService) Logout(token string) error {
	err := s.sessions.Delete(token)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return ErrSessionNotFound
		}
		return ioFailure("delete session", err)
	}
	return nil
}

// UserInfo returns the public profile of username.
func (s *IdentityService) UserInfo(username string) (models.UserInfo, error) {
	user, err := s.users.Get(username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return models.UserInfo{}, ErrUserNotFound
		}
		return models.UserInfo{}, ioFailure("load user", err)
	}
	return user.Info(), nil
}

// UpdateEmail changes the email of username, keeping emails unique across users.
func (s *IdentityService) UpdateEmail(username, email string) error {
	if email == "" {
		return ErrMissingField
	}
	if err := s.users.SetEmail(username, email); err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			return ErrUserNotFound
		case errors.Is(err, store.ErrEmailTaken):
			return ErrDuplicateEmail
		}
		return ioFailure("update email", err)
	}
	recordEvent(s.eventService, "user.email.update", "info", "Email address changed.", username)
	return nil
}

// RequestPasswordReset issues a reset token for the account registered with
// email and hands the link to the notifier. Delivery failures are only logged.
func (s *IdentityService) RequestPasswordReset(email string) error {
	if email == "" {
		return ErrMissingField
	}
	username, err := s.users.FindUsernameByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrEmailNotFound
		}
		return ioFailure("look up email", err)
	}

	reset, err := s.resetTokens.Issue(username, s.resetTTL)
	if err != nil {
		return ioFailure("create reset token", err)
	}

	if err := s.notifier.SendPasswordReset(email, username, s.resetURL(reset.Token)); err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to deliver password reset email")
	}
	recordEvent(s.eventService, "user.password.reset_request", "info", "Password reset requested.", username)
	return nil
}

// ResetPassword redeems a reset token and stores the new password. A token
// works at most once.
func (s *IdentityService) ResetPassword(token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrMissingField
	}

	// Consume deletes the token in the same locked cycle that validates it, so
	// concurrent redemptions of one token cannot both get past this point.
	reset, err := s.resetTokens.Consume(token)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTokenNotFound):
			return ErrInvalidToken
		case errors.Is(err, store.ErrTokenExpired):
			return ErrExpiredToken
		}
		return ioFailure("consume reset token", err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return ioFailure("hash password", err)
	}
	err = s.users.Update(reset.Username, func(u *models.User) error {
		u.PasswordHash = hash
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return ioFailure("update password", err)
	}

	recordEvent(s.eventService, "user.password.reset", "warn", "Password was reset.", reset.Username)
	return nil
}

// UserDir returns the absolute root directory of username's files.
func (s *IdentityService) UserDir(username string) (string, error) {
	user, err := s.users.Get(username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", ioFailure("load user", err)
	}
	dir := user.UserDir
	if dir == "" {
		dir = username
	}
	if !validName(dir) {
		return "", fmt.Errorf("user directory %q is not usable: %w", dir, ErrInvalidInput)
	}
	return filepath.Join(s.filesRoot, dir), nil
}

func (s *IdentityService) resetURL(token string) string {
	sep := "?"
	if strings.Contains(s.resetURLBase, "?") {
		sep = "&"
	}
	return s.resetURLBase + sep + "token=" + url.QueryEscape(token)
}
