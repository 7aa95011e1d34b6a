package guardtheory

import (
	"errors"
	"fmt"
)

// GuardError is a portable, client-safe error with a stable error code.
//
// Details are included in the error envelope verbatim, so they must never
// carry internal identifiers or stack material.
type GuardError struct {
	Code    string
	Message string

	// StatusCode overrides the default mapping for Code when non-zero.
	StatusCode int

	Details map[string]any
	Cause   error
}

func NewGuardError(code, message string) *GuardError {
	return &GuardError{Code: code, Message: message}
}

func (e *GuardError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GuardError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *GuardError) WithDetails(details map[string]any) *GuardError {
	if e == nil {
		return nil
	}
	e.Details = details
	return e
}

func (e *GuardError) WithStatusCode(statusCode int) *GuardError {
	if e == nil {
		return nil
	}
	e.StatusCode = statusCode
	return e
}

func (e *GuardError) WithCause(err error) *GuardError {
	if e == nil {
		return nil
	}
	e.Cause = err
	return e
}

// Status returns the HTTP status the error maps to.
func (e *GuardError) Status() int {
	if e == nil {
		return 500
	}
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	return statusForErrorCode(e.Code)
}

func AsGuardError(err error) (*GuardError, bool) {
	var guardErr *GuardError
	if errors.As(err, &guardErr) {
		return guardErr, true
	}
	return nil, false
}

func statusForErrorCode(code string) int {
	switch code {
	case CodeValidationError:
		return 400
	case CodeAuthRequired, CodeAuthInvalid:
		return 401
	case CodeAccessDenied:
		return 403
	case CodeNotFound:
		return 404
	case CodeStateConflict, CodeIdempotencyKeyReuseConflict, CodeIdempotencyInProgress:
		return 409
	case CodeIdempotencyKeyRequired, CodeIdempotencyKeyInvalid:
		return 422
	case CodeRateLimited, CodeQuotaExceeded:
		return 429
	case CodeInternal:
		return 500
	default:
		return 500
	}
}

// internalError hides the cause behind a generic message so store and
// business failures never leak detail into envelopes.
func internalError(cause error) *GuardError {
	return NewGuardError(CodeInternal, messageInternal).WithCause(cause)
}
