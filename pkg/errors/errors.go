// Package errors defines custom error types and error handling utilities for the backup gateway.
// This package provides structured error types that map to API error codes and HTTP status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error code carried in API error bodies.
type Code string

const (
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeRateLimited   Code = "TOO_MANY_REQUESTS"
	CodeError         Code = "ERROR"
	CodeInternalError Code = "INTERNAL_ERROR"
)

// Kind classifies an error independently of its wire code.
type Kind string

const (
	KindConfiguration   Kind = "configuration"
	KindAuthentication  Kind = "authentication"
	KindAuthorization   Kind = "authorization"
	KindRouteNotFound   Kind = "route_not_found"
	KindCryptoOperation Kind = "crypto_operation"
	KindBadRequest      Kind = "bad_request"
	KindRateLimited     Kind = "rate_limited"
	KindInternal        Kind = "internal"
)

// ================================================================================
// AppError
// ================================================================================

// AppError represents a structured application error
type AppError struct {
	Kind       Kind
	Code       Code
	HTTPStatus int
	Message    string
	Details    map[string]string
	cause      error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches any AppError of the same kind, so sentinel comparisons work
// through errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithError returns a copy of the error with the cause attached.
func (e *AppError) WithError(cause error) *AppError {
	cp := *e
	cp.cause = cause
	return &cp
}

// WithDetail returns a copy of the error with an extra detail entry.
func (e *AppError) WithDetail(key, value string) *AppError {
	cp := *e
	cp.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// NewError creates a new AppError with the specified parameters
func NewError(kind Kind, code Code, httpStatus int, message string) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		HTTPStatus: httpStatus,
		Message:    message,
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrConfiguration reports missing or invalid startup material. Never request scoped.
func ErrConfiguration(message string) *AppError {
	return NewError(KindConfiguration, CodeInternalError, http.StatusInternalServerError, message)
}

// ErrAuthentication reports a missing, invalid, expired or revoked credential.
func ErrAuthentication(message string) *AppError {
	return NewError(KindAuthentication, CodeUnauthorized, http.StatusUnauthorized, message)
}

// ErrAuthorization reports a principal lacking a required role.
func ErrAuthorization(message string) *AppError {
	return NewError(KindAuthorization, CodeForbidden, http.StatusForbidden, message)
}

// ErrRouteNotFound reports that no registered route matched.
func ErrRouteNotFound(method, path string) *AppError {
	return NewError(KindRouteNotFound, CodeNotFound, http.StatusNotFound,
		fmt.Sprintf("No route found for %s %s", method, path))
}

// ErrCryptoOperation reports a random source, cipher or key generation failure.
func ErrCryptoOperation(message string) *AppError {
	return NewError(KindCryptoOperation, CodeInternalError, http.StatusInternalServerError, message)
}

// ErrBadRequest reports a malformed request body or parameter.
func ErrBadRequest(message string) *AppError {
	return NewError(KindBadRequest, CodeError, http.StatusBadRequest, message)
}

// ErrRateLimited reports too many attempts from one caller.
func ErrRateLimited(message string) *AppError {
	return NewError(KindRateLimited, CodeRateLimited, http.StatusTooManyRequests, message)
}

// ErrInternal reports an unexpected server-side failure.
func ErrInternal(message string) *AppError {
	return NewError(KindInternal, CodeInternalError, http.StatusInternalServerError, message)
}

// Sentinels for errors.Is comparisons.
var (
	ErrKindConfiguration   = &AppError{Kind: KindConfiguration}
	ErrKindAuthentication  = &AppError{Kind: KindAuthentication}
	ErrKindAuthorization   = &AppError{Kind: KindAuthorization}
	ErrKindRouteNotFound   = &AppError{Kind: KindRouteNotFound}
	ErrKindCryptoOperation = &AppError{Kind: KindCryptoOperation}
	ErrKindBadRequest      = &AppError{Kind: KindBadRequest}
)

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsAppError attempts to extract an AppError from the chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}

// ShouldLogError determines if an error should be logged at error level
func ShouldLogError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus >= http.StatusInternalServerError
	}
	return true
}

// Is and As re-export the standard library helpers so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// New returns a plain error with the given text.
func New(text string) error { return stderrors.New(text) }
