// Package errors provides structured error types for the slizzai pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the sampler service and the pipeline
//   - Machine-readable codes that map onto process exit statuses
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes group into the failure classes of a tile run:
//   - INVALID_*: configuration and input validation failures (fatal, never retried)
//   - CODEC_*: quantization codec integrity failures (fatal to the run)
//   - BUDGET_EXCEEDED: the resource ceiling was reached (fatal to the run)
//   - TRANSIENT_SERVICE, NETWORK_*, TIMEOUT, RATE_LIMITED: remote failures
//   - INTERRUPTED: graceful shutdown on user interrupt or deadline
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "fib_modulus must be >= 2, got %d", m)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransientService, origErr, "enhance tile %d", idx)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidURL    Code = "INVALID_URL"
	ErrCodeInvalidState  Code = "INVALID_STATE"

	// Codec integrity errors
	ErrCodeCodecOverflow       Code = "CODEC_OVERFLOW"
	ErrCodeCodecLengthMismatch Code = "CODEC_LENGTH_MISMATCH"
	ErrCodeCodecIntegrity      Code = "CODEC_INTEGRITY"

	// Resource budget errors
	ErrCodeBudgetExceeded    Code = "BUDGET_EXCEEDED"
	ErrCodeSignalUnavailable Code = "SIGNAL_UNAVAILABLE"

	// Remote service errors
	ErrCodeTransientService Code = "TRANSIENT_SERVICE"
	ErrCodeService          Code = "SERVICE_ERROR"
	ErrCodeNetwork          Code = "NETWORK_ERROR"
	ErrCodeTimeout          Code = "TIMEOUT"
	ErrCodeRateLimited      Code = "RATE_LIMITED"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Lifecycle
	ErrCodeInterrupted Code = "INTERRUPTED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// Coder is implemented by typed errors that carry their own code
// (codec, budget and abort errors) without embedding *Error.
type Coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a [Coder] with a
// matching code. Every coded error in the chain is inspected, so a
// TRANSIENT_SERVICE error wrapping a TIMEOUT matches both codes.
func Is(err error, code Code) bool {
	for err != nil {
		if c, ok := codeOf(err); ok && c == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		if c, ok := codeOf(err); ok {
			return c
		}
		err = errors.Unwrap(err)
	}
	return ""
}

func codeOf(err error) (Code, bool) {
	switch e := err.(type) {
	case *Error:
		return e.Code, true
	case Coder:
		return e.Code(), true
	}
	return "", false
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
