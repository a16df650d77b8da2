package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Wayfind framework errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Catalog error codes
const (
	CATALOG_LOAD_FAILED       ErrorCode = "CATALOG_LOAD_FAILED"
	CATALOG_PARSE_FAILED      ErrorCode = "CATALOG_PARSE_FAILED"
	CATALOG_VALIDATION_FAILED ErrorCode = "CATALOG_VALIDATION_FAILED"
	CAPABILITY_NOT_FOUND      ErrorCode = "CAPABILITY_NOT_FOUND"
)

// Collaborator error codes
const (
	COLLABORATOR_UNAVAILABLE ErrorCode = "COLLABORATOR_UNAVAILABLE"
	COLLABORATOR_TIMEOUT     ErrorCode = "COLLABORATOR_TIMEOUT"
	RESPONSE_PARSE_FAILED    ErrorCode = "RESPONSE_PARSE_FAILED"
)

// Planning error codes
const (
	PLAN_INVARIANT_VIOLATED ErrorCode = "PLAN_INVARIANT_VIOLATED"
	PLAN_INVALID_PARAMETER  ErrorCode = "PLAN_INVALID_PARAMETER"
)

// Error represents a structured error with error code, message, and optional cause.
// It supports error wrapping and retryability hints for error handling logic.
type Error struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var wErr *Error
	if errors.As(target, &wErr) {
		return e.Code == wErr.Code
	}
	return false
}

// NewError creates a new non-retryable Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     nil,
	}
}

// NewRetryableError creates a new retryable Error with the given code and message.
// Use this for transient errors that may succeed on retry (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     nil,
	}
}

// WrapError creates a new non-retryable Error that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// WrapRetryableError creates a new retryable Error that wraps an existing error.
func WrapRetryableError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Retryable: true,
		Cause:     cause,
	}
}

// IsRetryable reports whether err (or any error in its chain) is a retryable Error.
func IsRetryable(err error) bool {
	var wErr *Error
	if errors.As(err, &wErr) {
		return wErr.Retryable
	}
	return false
}
