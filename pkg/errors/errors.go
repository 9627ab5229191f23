// Package errors provides structured error types for the fractal-go client.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the SDK and CLI
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages carrying the API's own wording
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Local validation failures (no request was sent)
//   - UNAUTHORIZED/FORBIDDEN: Authentication and scope failures
//   - REJECTED: The API accepted the request but refused the operation
//   - NETWORK_*/SERVER_*: Transport and remote failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSecret, "secret must decode to %d bytes", 20)
//	if errors.Is(err, errors.ErrCodeInvalidSecret) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch user %d", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Local validation errors
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeInvalidSecret        Code = "INVALID_SECRET"
	ErrCodeInvalidScope         Code = "INVALID_SCOPE"
	ErrCodeInvalidTokenType     Code = "INVALID_TOKEN_TYPE"
	ErrCodeInvalidAmount        Code = "INVALID_AMOUNT"
	ErrCodeInvalidWalletAddress Code = "INVALID_WALLET_ADDRESS"
	ErrCodeInvalidUsername      Code = "INVALID_USERNAME"
	ErrCodeInvalidEmail         Code = "INVALID_EMAIL"
	ErrCodeInvalidPassword      Code = "INVALID_PASSWORD"

	// API responses
	ErrCodeBadRequest Code = "BAD_REQUEST"
	ErrCodeNotFound   Code = "NOT_FOUND"
	ErrCodeRejected   Code = "REJECTED"

	// Authentication errors
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeForbidden      Code = "FORBIDDEN"
	ErrCodeTokenExpired   Code = "TOKEN_EXPIRED"
	ErrCodeSessionExpired Code = "SESSION_EXPIRED"

	// Transport errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"
	ErrCodeServer      Code = "SERVER_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
