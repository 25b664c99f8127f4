package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: missing_configuration, not_found, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context (status, body preview, candidates)
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches another ExecutionError by category and code, so wrapped copies
// produced by the With* helpers still match their sentinel.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithMessagef is WithMessage with printf-style formatting.
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	ErrMissingConfiguration = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_configuration",
		Message:  "missing required configuration",
	}
	ErrAuthenticationFailure = &ExecutionError{
		Category: ErrCategoryAuth,
		Code:     "authentication_failed",
		Message:  "authentication failed",
	}
	ErrRequestFailure = &ExecutionError{
		Category: ErrCategoryRequest,
		Code:     "request_failed",
		Message:  "request failed",
	}
	ErrNotFound = &ExecutionError{
		Category: ErrCategoryNotFound,
		Code:     "not_found",
		Message:  "not found",
	}
	ErrParseFailure = &ExecutionError{
		Category: ErrCategoryParse,
		Code:     "parse_failed",
		Message:  "invalid JSON response",
	}
)

// CategoryOf returns the category of the first ExecutionError in err's chain.
// Errors that carry no category are treated as request failures.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryRequest
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	return CategoryOf(err).ExitCode()
}

// Truncate shortens s to at most n bytes for inclusion in error messages.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
