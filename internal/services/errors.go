package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned by Login for an unknown email and
	// for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized marks a missing, malformed, expired or forged token,
	// or a token whose user no longer exists.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller is authenticated but does
	// not own the resource.
	ErrForbidden = errors.New("not authorized")

	// ErrNotFound is returned when the resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("already registered")

	errTaskNotFound = fmt.Errorf("task %w", ErrNotFound)
	errEmailTaken   = fmt.Errorf("email %w", ErrConflict)
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
