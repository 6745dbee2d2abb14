package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. Authorization and not-found
// failures keep their transport status; lifecycle business-rule failures
// carry 200 so the envelope's success flag reports the outcome instead.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized access")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrUnknownResourceKind = New("UNKNOWN_RESOURCE_KIND", http.StatusBadRequest, "unknown resource kind")
	ErrResourceArchived    = New("RESOURCE_ARCHIVED", http.StatusOK, "resource is archived")
	ErrResourceNotArchived = New("RESOURCE_NOT_ARCHIVED", http.StatusOK, "resource is not archived")
	ErrInvalidTransition   = New("INVALID_TRANSITION", http.StatusOK, "invalid status transition")
	ErrInvalidBulkRequest  = New("INVALID_BULK_REQUEST", http.StatusBadRequest, "invalid bulk operation request")
	ErrDeleteFailed        = New("DELETE_FAILED", http.StatusOK, "delete affected no rows")
	ErrTransitionFailed    = New("TRANSITION_FAILED", http.StatusOK, "status transition failed")
)

// Is matches errors by code so clones compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error with extra context appended to
// the message. The code and status are preserved.
func (e *Error) WithDetails(detail string) *Error {
	clone := *e
	if detail != "" {
		clone.Message = fmt.Sprintf("%s (%s)", e.Message, detail)
	}
	return &clone
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
