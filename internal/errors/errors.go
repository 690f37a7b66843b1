// Package errors defines sentinel errors and transport error types shared
// across the counselor bot.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check them.
var (
	// ErrInvalidSignature indicates the X-Hub-Signature-256 header did not match the body.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMissingSignature indicates a signed request arrived without a signature header.
	ErrMissingSignature = errors.New("missing webhook signature")

	// ErrNotConfigured indicates a collaborator (page token, LLM key) is not configured.
	ErrNotConfigured = errors.New("not configured")

	// ErrEmptyMessage indicates an outbound message had no text.
	ErrEmptyMessage = errors.New("empty message")
)

// GraphError is a failed Graph API call. Code, Type and Message come from
// the response's error object when one was returned.
type GraphError struct {
	Op         string
	StatusCode int
	Code       int
	Type       string
	Message    string
}

func (e *GraphError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("graph api %s: status %d: %s (code %d)", e.Op, e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("graph api %s: status %d", e.Op, e.StatusCode)
}

// Temporary reports whether retrying the call later may succeed.
func (e *GraphError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
