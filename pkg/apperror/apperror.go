// Package apperror defines the error taxonomy rendered at the HTTP boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindValidation      Kind = "validation"
	KindStorage         Kind = "storage"
	KindRateLimited     Kind = "rate_limited"
)

// Error is an application error carrying a caller-safe message.
type Error struct {
	Kind     Kind
	Message  string
	Internal error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches sentinel errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrStorage         = &Error{Kind: KindStorage}
	ErrRateLimited     = &Error{Kind: KindRateLimited}
)

// Unauthenticated reports a missing or unresolvable credential.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

// Forbidden reports a failed role check.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

// Validation reports a malformed request.
func Validation(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Internal: err}
}

// Storage wraps a failed query.
func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Internal: err}
}

// RateLimited reports a caller that exceeded its request quota.
func RateLimited(message string) *Error {
	return &Error{Kind: KindRateLimited, Message: message}
}

// Status maps err to an HTTP status. In legacy mode every failure is a 500.
func Status(err error, legacy bool) int {
	if legacy {
		return http.StatusInternalServerError
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to API consumers.
func PublicMessage(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if fallback == "" {
		return "internal server error"
	}
	return fallback
}
