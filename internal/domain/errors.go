package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("already exists")
	ErrDuplicateUsername  = fmt.Errorf("username %w", ErrDuplicate)
	ErrDuplicateEmail     = fmt.Errorf("email %w", ErrDuplicate)
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid or revoked token")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrQuotaExceeded      = fmt.Errorf("%w: free plan invoice limit reached, upgrade to PRO for unlimited invoices", ErrPermissionDenied)
)

// ValidationError reports a malformed or missing request field.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
