// Package apperror defines the semantic errors returned by the contact graph engine. The HTTP
// layer maps them to status codes; nothing in here knows about transports.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindInternal       Kind = "INTERNAL"
	KindUnauthorized   Kind = "UNAUTHORIZED"
	KindNotFound       Kind = "NOT_FOUND"
	KindValidation     Kind = "VALIDATION"
	KindConflict       Kind = "CONFLICT"
	KindExternalLookup Kind = "EXTERNAL_LOOKUP"
)

// Error is an error with a Kind and a message that is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same kind, so errors.Is(err, apperror.ErrNotFound) works for every
// not found error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

// NotFound creates a not found error for the named resource.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...) + " not found"}
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an error for a caller without a valid identity.
func Unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: "unauthorized"}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for errors that are not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal error"
}
