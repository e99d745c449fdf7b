// Package errors defines the application error type shared by every layer and
// its HTTP rendering.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"

	// Application errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeRateLimit   ErrorType = "RATE_LIMIT"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"

	// Infrastructure errors
	ErrorTypeDatabase ErrorType = "DATABASE"
)

// statusByType is the HTTP status each error type renders with.
var statusByType = map[ErrorType]int{
	ErrorTypeValidation:   http.StatusBadRequest,
	ErrorTypeNotFound:     http.StatusNotFound,
	ErrorTypeConflict:     http.StatusConflict,
	ErrorTypeUnauthorized: http.StatusUnauthorized,
	ErrorTypeForbidden:    http.StatusForbidden,
	ErrorTypeInternal:     http.StatusInternalServerError,
	ErrorTypeRateLimit:    http.StatusTooManyRequests,
	ErrorTypeUnavailable:  http.StatusServiceUnavailable,
	ErrorTypeDatabase:     http.StatusInternalServerError,
}

// Machine-readable codes carried in AppError.Code
const (
	CodeInvalidNonce      = "invalid_nonce"
	CodeMissingCapability = "missing_capability"
	CodeInvalidIndex      = "invalid_index"
	CodeUnknownAction     = "unknown_action"
	CodeNoteNotFound      = "note_not_found"
	CodeVersionConflict   = "version_conflict"
	CodeStoreUnavailable  = "store_unavailable"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	// Retryable marks errors a client may resolve by sending the same request again.
	Retryable  bool   `json:"retryable,omitempty"`
	Cause      error  `json:"-"`
	StackTrace string `json:"-"`
	HTTPStatus int    `json:"-"`
}

func newError(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: statusByType[errType],
		StackTrace: captureStackTrace(),
	}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// captureStackTrace records the caller of the constructor that built the error.
func captureStackTrace() string {
	var pcs [32]uintptr
	n := runtime.Callers(4, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

// NewValidationError reports malformed input
func NewValidationError(message string) *AppError {
	return newError(ErrorTypeValidation, message)
}

// NewNotFoundError reports a missing resource
func NewNotFoundError(resource string) *AppError {
	return newError(ErrorTypeNotFound, resource+" not found")
}

// NewConflictError reports a write that lost a race. Conflicts are retryable.
func NewConflictError(message string) *AppError {
	e := newError(ErrorTypeConflict, message)
	e.Retryable = true
	return e
}

// NewUnauthorizedError reports a missing or invalid session
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(ErrorTypeUnauthorized, message)
}

// NewForbiddenError reports a caller lacking a capability or a valid nonce
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return newError(ErrorTypeForbidden, message)
}

// NewInternalError reports an unexpected failure
func NewInternalError(message string) *AppError {
	return newError(ErrorTypeInternal, message)
}

// NewRateLimitError reports a client over its request budget
func NewRateLimitError(limit int, window string) *AppError {
	e := newError(ErrorTypeRateLimit, fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window))
	e.Retryable = true
	return e
}

// NewUnavailableError reports a dependency that is temporarily down
func NewUnavailableError(service string) *AppError {
	e := newError(ErrorTypeUnavailable, service+" is unavailable")
	e.Retryable = true
	return e
}

// NewDatabaseError reports a failed storage operation
func NewDatabaseError(operation string, err error) *AppError {
	return newError(ErrorTypeDatabase, fmt.Sprintf("storage operation '%s' failed", operation)).WithCause(err)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return IsType(err, ErrorTypeNotFound) }

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return IsType(err, ErrorTypeValidation) }

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool { return IsType(err, ErrorTypeConflict) }

// IsUnavailable checks if an error is a service unavailable error
func IsUnavailable(err error) bool { return IsType(err, ErrorTypeUnavailable) }

// IsRetryable reports whether err is an AppError marked retryable
func IsRetryable(err error) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Retryable
}
