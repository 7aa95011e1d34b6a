package entitlements

import (
	"fmt"
	"time"
)

// ErrorType identifies the category of an entitlements error.
type ErrorType string

const (
	ErrorTypeInternal     ErrorType = "internal_error"
	ErrorTypeInvalidInput ErrorType = "invalid_input"
)

// Error represents an internal entitlements failure.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "entitlements error"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewError(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

func WrapError(cause error, errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message, Cause: cause}
}

// DeniedError reports that a feature is not entitled for the subject.
type DeniedError struct {
	Feature FeatureKey
	Plan    string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("feature %q not entitled on plan %q", e.Feature, e.Plan)
}

// QuotaExceededError reports that a quota ceiling was reached.
type QuotaExceededError struct {
	Key      QuotaKey
	Limit    int
	Count    int64
	ResetsAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota %q exceeded: %d of %d used", e.Key, e.Count, e.Limit)
}
