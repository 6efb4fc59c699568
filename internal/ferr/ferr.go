// Package ferr provides the coded-error convention shared by every
// framework package: a stable string code, a human message, an optional
// wrapped cause, and free-form context for diagnostics.
package ferr

import (
	"errors"
	"fmt"
)

// Error is a coded error with optional structured context.
type Error struct {
	Code    string
	Message string
	Cause   error
	Context map[string]any
}

// New creates a coded error. cause may be nil.
func New(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WithContext attaches a key/value pair and returns the same error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any, 1)
	}
	e.Context[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code: two *Error values are equivalent for errors.Is
// purposes when their codes match, regardless of message or context.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// Code extracts the code from a coded error, or "" if err is not one.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
