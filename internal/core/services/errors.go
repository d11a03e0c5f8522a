package services

import (
	"errors"
	"fmt"
	"strings"
)

// Auth errors
var (
	ErrUnauthorized = errors.New("auth: invalid credentials")
	ErrForbidden    = errors.New("auth: operation not permitted for this role")
)

// Key management errors
var (
	ErrSigningKeyUnavailable = errors.New("keys: signing secret unavailable")
)

// ValidationError reports every invalid input field at once.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, "; "))
}

func newValidationError(message string, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Message: message, Fields: fields}
}
