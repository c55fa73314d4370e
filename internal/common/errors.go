package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal  = errors.New("internal error")
	ErrValidation  = errors.New("validation error")
	ErrRateLimited = errors.New("rate limit exceeded")

	// Registration.
	ErrDuplicateUsername = errors.New("user already exists")
	ErrDuplicateEmail    = errors.New("email already in use")
	ErrPasswordMismatch  = errors.New("the two passwords should match")

	// Activation.
	ErrKeyNotFound     = errors.New("activation key not found")
	ErrAccountInactive = errors.New("account is inactive")
	ErrAlreadyVerified = errors.New("account already verified")
	ErrKeyExpired      = errors.New("activation key expired")

	// Login and token resolution.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveAccount    = errors.New("inactive account")
	ErrUnverifiedAccount  = errors.New("account not verified")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")

	// Snippets.
	ErrQuotaExceeded  = errors.New("daily snippet quota exceeded")
	ErrDuplicateTitle = errors.New("snippet title already used")
	ErrNotOwned       = errors.New("snippet not owned by caller")
	ErrRenderFailed   = errors.New("render failed")
	ErrUploadFailed   = errors.New("upload failed")
)

// QuotaExceededError reports the limit that was hit and whom to contact for
// an upgrade. It matches ErrQuotaExceeded with errors.Is.
type QuotaExceededError struct {
	Limit   int
	Contact string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("You can only submit %d snippets per day, contact %s to upgrade", e.Limit, e.Contact)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}
