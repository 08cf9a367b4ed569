package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error. Field is set for validation failures
// so callers can attach the message to the offending input.
type Error struct {
	Code    ErrorCode
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches domain errors by code and message so sentinel comparisons survive wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message && e.Field == t.Field
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewFieldError builds a validation error bound to an input field.
func NewFieldError(field, message string) *Error {
	return &Error{Code: ErrCodeInvalid, Field: field, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Unavailable marks err as a backend outage.
func Unavailable(message string, err error) *Error {
	return WrapError(ErrCodeUnavailable, message, err)
}

// Common domain errors.
var (
	ErrReminderNotFound = NewError(ErrCodeNotFound, "reminder not found")
	ErrUserNotFound     = NewError(ErrCodeNotFound, "user not found")
	ErrSessionNotFound  = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
	ErrRemoteDisabled   = NewError(ErrCodeUnavailable, "remote sync is not configured")

	ErrTitleRequired    = NewFieldError("title", "title is required")
	ErrDeadlineRequired = NewFieldError("deadline", "deadline is required")
	ErrDeadlinePast     = NewFieldError("deadline", "deadline must be in the future")
	ErrInvalidPriority  = NewFieldError("priority", "unknown priority")
	ErrInvalidCategory  = NewFieldError("category", "unknown category")
	ErrInvalidNotify    = NewFieldError("notify_before", "notify_before must not be negative")
	ErrDeadlineSettled  = NewFieldError("deadline", "deadline of a completed reminder cannot change")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// FieldOf returns the input field a validation error refers to, if any.
func FieldOf(err error) string {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Field
	}
	return ""
}
