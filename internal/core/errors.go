package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced profile or session does
	// not exist, or the profile is inactive.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on a unique-constraint violation, e.g. a
	// duplicate public profile code.
	ErrConflict = errors.New("already exists")

	// ErrUnauthorized is returned for failed admin identity or webhook
	// signature checks. Intentionally carries no detail.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrReconciliationGap is returned when a donation was committed as
	// completed but the profile aggregate increment did not. The donation
	// is paid; the books are off until an operator follows up.
	ErrReconciliationGap = errors.New("reconciliation gap: completed donation not credited")
)

// ValidationError reports malformed or out-of-range input on a single field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExternalServiceError wraps a payment processor or object storage failure.
// The wrapped detail is for logs; callers show a generic message.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}
