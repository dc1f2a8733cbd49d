package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a dmkit error code.
type ErrorCode string

const (
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"  // 400
	ErrNotFound      ErrorCode = "NOT_FOUND"      // 404
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS" // 409
	ErrIOFailure     ErrorCode = "IO_FAILURE"     // 500
	ErrInternal      ErrorCode = "INTERNAL"       // 500
)

// DMError represents a structured error with code, status, and details.
type DMError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *DMError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *DMError) Unwrap() error {
	return e.cause
}

// NewInvalidInput creates a 400 error for malformed input (dice notation, patches, names).
func NewInvalidInput(msg string) *DMError {
	return &DMError{
		Code:    ErrInvalidInput,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidInputf is NewInvalidInput with formatting.
func NewInvalidInputf(format string, args ...any) *DMError {
	return NewInvalidInput(fmt.Sprintf(format, args...))
}

// NewNotFound creates a 404 error. kind names what was looked up ("character", "session", ...).
func NewNotFound(kind, identifier string) *DMError {
	return &DMError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewNotFoundMessage creates a 404 error with a caller-supplied message.
func NewNotFoundMessage(msg string, details map[string]any) *DMError {
	return &DMError{
		Code:    ErrNotFound,
		Status:  404,
		Message: msg,
		Details: details,
	}
}

// NewAlreadyExists creates a 409 error when a target already exists.
func NewAlreadyExists(kind, identifier string) *DMError {
	return &DMError{
		Code:    ErrAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("%s already exists: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewIOFailure creates a 500 error for read/write/serialization failures at the storage boundary.
func NewIOFailure(op string, err error) *DMError {
	msg := op + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", op, err)
	}
	return &DMError{
		Code:    ErrIOFailure,
		Status:  500,
		Message: msg,
		Details: map[string]any{"operation": op},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error is kept in Details for logging.
func NewInternal(err error) *DMError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &DMError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a DMError with the given code.
func Is(err error, code ErrorCode) bool {
	var dmErr *DMError
	if stderrors.As(err, &dmErr) {
		return dmErr.Code == code
	}
	return false
}

// As extracts a *DMError from err, if present.
func As(err error) (*DMError, bool) {
	var dmErr *DMError
	ok := stderrors.As(err, &dmErr)
	return dmErr, ok
}
