// Package errors provides standardized domain errors with codes for the conversion pipeline.
//
// Usage:
//
//	// In the pipeline - return typed errors
//	if len(audio) == 0 {
//	    return errors.Provider("synthesis returned empty audio")
//	}
//
//	// At call sites - check with errors.Is
//	if errors.Is(err, errors.ErrProvider) {
//	    // chapter failed, continue with the next one
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound   Code = "NOT_FOUND"
	CodeValidation Code = "VALIDATION"
	CodeExtraction Code = "EXTRACTION"
	CodeProvider   Code = "PROVIDER"
	CodeTranscode  Code = "TRANSCODE"
	CodeInternal   Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation:
		return http.StatusBadRequest
	case CodeProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound   = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation = &Error{Code: CodeValidation, Message: "validation error"}
	ErrExtraction = &Error{Code: CodeExtraction, Message: "extraction error"}
	ErrProvider   = &Error{Code: CodeProvider, Message: "provider error"}
	ErrTranscode  = &Error{Code: CodeTranscode, Message: "transcode error"}
	ErrInternal   = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Extraction creates an extraction error.
func Extraction(msg string) *Error {
	return &Error{Code: CodeExtraction, Message: msg}
}

// Extractionf creates an extraction error with formatted message.
func Extractionf(format string, args ...any) *Error {
	return &Error{Code: CodeExtraction, Message: fmt.Sprintf(format, args...)}
}

// Provider creates a synthesis provider error.
func Provider(msg string) *Error {
	return &Error{Code: CodeProvider, Message: msg}
}

// Providerf creates a synthesis provider error with formatted message.
func Providerf(format string, args ...any) *Error {
	return &Error{Code: CodeProvider, Message: fmt.Sprintf(format, args...)}
}

// Transcode creates a transcode error.
func Transcode(msg string) *Error {
	return &Error{Code: CodeTranscode, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
