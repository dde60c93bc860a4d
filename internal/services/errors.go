package services

import (
	"errors"
	"fmt"

	"github.com/isdelr/filevault-be/internal/auth"
)

// Error kinds. Every error returned by the services wraps exactly one of these,
// so callers branch with errors.Is on the kind or on the specific error.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = auth.ErrUnauthenticated
	ErrInvalidInput = errors.New("invalid input")
	ErrIOFailure    = errors.New("storage failure")
)

var (
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailNotFound     = fmt.Errorf("email %w", ErrNotFound)
	ErrSessionNotFound   = fmt.Errorf("session %w", ErrNotFound)
	ErrInvalidToken      = fmt.Errorf("reset token %w", ErrNotFound)
	ErrFileNotFound      = fmt.Errorf("file or folder %w", ErrNotFound)
	ErrDuplicateUsername = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrDuplicateEmail    = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrDirectoryExists   = fmt.Errorf("folder already exists: %w", ErrConflict)
	ErrBadPassword       = fmt.Errorf("incorrect password: %w", ErrUnauthorized)
	ErrSessionInvalid    = fmt.Errorf("session expired or invalid: %w", ErrUnauthorized)
	ErrExpiredToken      = fmt.Errorf("reset token expired: %w", ErrUnauthorized)
	ErrMissingField      = fmt.Errorf("required field is empty: %w", ErrInvalidInput)
	ErrInvalidFilename   = fmt.Errorf("invalid file name: %w", ErrInvalidInput)
)

// ioFailure wraps a storage error with the IOFailure kind and some context.
func ioFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIOFailure, err)
}
