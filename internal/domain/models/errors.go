package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no resolution strategy matched the query.
	ErrNotFound = errors.New("instrument not found")
	// ErrDataUnavailable is returned when price history is insufficient.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrValidation marks rejected configuration writes.
	ErrValidation = errors.New("validation error")
)

// ValidationError carries the offending field of a rejected update.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
