package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrUnauthorized       = errors.New("authentication credentials were not provided")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user inactive")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrTokenRevoked       = errors.New("token is blacklisted")
)

// NonFieldErrors is the key used for validation messages that do not
// belong to a single request field.
const NonFieldErrors = "non_field_errors"

// ValidationError collects per-field validation messages.
// It unwraps to ErrInvalidInput and, when set, to Cause.
type ValidationError struct {
	Fields map[string][]string
	Cause  error
}

// NewValidationError returns a ValidationError holding a single message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add records a message against field.
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// Err returns v as an error, or nil when no messages were recorded.
func (v *ValidationError) Err() error {
	if v == nil || len(v.Fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs := strings.Join(v.Fields[k], " ")
		if k == NonFieldErrors {
			parts = append(parts, msgs)
			continue
		}
		parts = append(parts, k+": "+msgs)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() []error {
	if v.Cause != nil {
		return []error{ErrInvalidInput, v.Cause}
	}
	return []error{ErrInvalidInput}
}
