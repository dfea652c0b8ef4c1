// Package apperr holds the error values shared by the stores, the services
// and the web layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id or username does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique value (username) is already taken.
	ErrConflict = errors.New("already exists")
	// ErrAuthFailure is returned for bad credentials. It never says which part was wrong.
	ErrAuthFailure = errors.New("invalid username or password")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreError wraps an underlying persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserMessage returns the text that may be shown to the user for err, and
// false when err must not be exposed.
func UserMessage(err error) (string, bool) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error(), true
	case errors.Is(err, ErrAuthFailure):
		return ErrAuthFailure.Error(), true
	case errors.Is(err, ErrConflict):
		return "username is already taken", true
	case errors.Is(err, ErrNotFound):
		return "not found", true
	}
	return "", false
}
