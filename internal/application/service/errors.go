package service

import (
	"errors"
	"fmt"

	domainwf "github.com/zosarillana/prs-be/internal/domain/workflow"
)

// ErrNotFound is wrapped by every missing-entity error
var ErrNotFound = errors.New("not found")

// ErrInvalidTransition is returned for PO actions the current PO state does not allow
var ErrInvalidTransition = domainwf.ErrInvalidTransition

// ValidationError rejects malformed input before anything is written
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

// IsValidation reports whether err carries a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
