// Package domain holds error and pagination types shared by every layer of the service.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to API clients.
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeForbidden    = "FORBIDDEN"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInvalidState = "INVALID_STATE"
	CodeStorage      = "STORAGE_ERROR"
	CodeInternal     = "INTERNAL"
)

// Sentinels for matching with errors.Is. Constructors below return values with the same codes.
var (
	ErrNotFound     = New(http.StatusNotFound, CodeNotFound, "not found")
	ErrConflict     = New(http.StatusConflict, CodeConflict, "conflict")
	ErrForbidden    = New(http.StatusForbidden, CodeForbidden, "forbidden")
	ErrInvalidState = New(http.StatusConflict, CodeInvalidState, "invalid state")
	ErrStorage      = New(http.StatusInternalServerError, CodeStorage, "storage error")
)

// AppError is an error that carries a machine readable code and the HTTP status it maps to.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	cause      error
}

// New creates an AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.cause }

// Is matches another AppError by code, so sentinel values survive WithMessage copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// NewValidationError reports bad input.
func NewValidationError(message string) *AppError {
	return New(http.StatusBadRequest, CodeValidation, message)
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s %s not found", entity, id))
}

// NewConflictError reports a write that lost against a concurrent modification.
func NewConflictError(message string) *AppError {
	return New(http.StatusConflict, CodeConflict, message)
}

// NewForbiddenError reports an authenticated caller acting outside their rights.
func NewForbiddenError(message string) *AppError {
	return New(http.StatusForbidden, CodeForbidden, message)
}

// NewUnauthorizedError reports a missing or invalid credential.
func NewUnauthorizedError(message string) *AppError {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// NewInvalidStateError reports an operation that is not allowed from the current state.
func NewInvalidStateError(from, to string) *AppError {
	return New(http.StatusConflict, CodeInvalidState, fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// NewStorageError wraps an unexpected persistence failure. The cause is kept for logs only.
func NewStorageError(op string, cause error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    op + " failed",
		HTTPStatus: http.StatusInternalServerError,
		cause:      cause,
	}
}

// AsAppError extracts an AppError from err, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
