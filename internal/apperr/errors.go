// Package apperr defines the domain error type shared by the engines.
package apperr

import (
	"errors"
	"net/http"
)

// Kind groups error codes by how callers should react to them.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindPolicy          Kind = "policy"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindUnauthenticated Kind = "unauthenticated"
	KindConflict        Kind = "conflict"
)

// Error is the domain error type returned by every engine.
type Error struct {
	Kind    Kind   // Coarse category
	Code    Code   // Machine-readable code, also the i18n key
	Message string // Internal message for logs
	Cause   error  // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func newError(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code Code, message string) *Error { return newError(KindValidation, code, message) }
func Policy(code Code, message string) *Error     { return newError(KindPolicy, code, message) }
func NotFound(code Code, message string) *Error   { return newError(KindNotFound, code, message) }
func Forbidden(code Code, message string) *Error  { return newError(KindForbidden, code, message) }
func Conflict(code Code, message string) *Error   { return newError(KindConflict, code, message) }

func Unauthenticated(code Code, message string) *Error {
	return newError(KindUnauthenticated, code, message)
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(kind Kind, code Code, message string, cause error) *Error {
	e := newError(kind, code, message)
	e.Cause = cause
	return e
}

// As returns the first domain error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" for non-domain errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps err onto a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindPolicy, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
