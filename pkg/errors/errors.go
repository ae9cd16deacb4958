package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Stream errors
	ErrSourceOpen  ErrorCode = "SOURCE_OPEN"
	ErrWrite       ErrorCode = "WRITE"
	ErrInterrupted ErrorCode = "INTERRUPTED"
)

// PrismError represents a structured error with code and details
type PrismError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *PrismError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *PrismError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *PrismError) Is(target error) bool {
	var targetErr *PrismError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new PrismError with the given code and message
func New(code ErrorCode, message string) *PrismError {
	return &PrismError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new PrismError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PrismError {
	return &PrismError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a PrismError
func Wrap(err error, code ErrorCode, message string) *PrismError {
	if err == nil {
		return nil
	}
	return &PrismError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *PrismError {
	if err == nil {
		return nil
	}
	return &PrismError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *PrismError) WithDetail(key string, value interface{}) *PrismError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var prismErr *PrismError
	if errors.As(err, &prismErr) {
		return prismErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a PrismError
func GetErrorCode(err error) ErrorCode {
	var prismErr *PrismError
	if errors.As(err, &prismErr) {
		return prismErr.Code
	}
	return ErrUnknown
}
