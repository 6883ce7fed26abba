package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates bad input; no state was changed.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeNotFound indicates an unknown posting id.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInvalidTransition indicates an unrecognised status or an illegal status change.
	ErrCodeInvalidTransition ErrorCode = "invalid_transition"
	// ErrCodeStorage indicates the persistence layer is unavailable or failed.
	ErrCodeStorage ErrorCode = "storage"
	// ErrCodeNotifier indicates a notification could not be delivered.
	ErrCodeNotifier ErrorCode = "notifier"
	// ErrCodeUnauthorized indicates the caller has no administrator session.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Fields maps field names to messages for validation errors.
	Fields map[string]string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a validation error from a field -> message map.
func Validation(fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return &AppError{
		Code:    ErrCodeValidation,
		Message: "invalid fields: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

// ValidationField creates a validation error for a single field.
func ValidationField(field, message string) *AppError {
	return Validation(map[string]string{field: message})
}

// NotFoundf creates a NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// InvalidTransitionf creates an InvalidTransition error with formatted message.
func InvalidTransitionf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf(format, args...),
	}
}

// Storage wraps a persistence failure.
func Storage(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeStorage,
		Message: message,
		Cause:   cause,
	}
}

// Notifier wraps a notification delivery failure.
func Notifier(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeNotifier,
		Message: message,
		Cause:   cause,
	}
}

// Unauthorized creates an Unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first AppError in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err's chain contains an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }

// IsInvalidTransition reports whether err is an invalid-transition error.
func IsInvalidTransition(err error) bool { return HasCode(err, ErrCodeInvalidTransition) }

// IsStorage reports whether err is a storage error.
func IsStorage(err error) bool { return HasCode(err, ErrCodeStorage) }

// IsUnauthorized reports whether err is an unauthorized error.
func IsUnauthorized(err error) bool { return HasCode(err, ErrCodeUnauthorized) }
