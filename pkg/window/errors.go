package window

// ErrorType identifies the category of a counter error.
type ErrorType string

const (
	ErrorTypeInternal     ErrorType = "internal_error"
	ErrorTypeInvalidInput ErrorType = "invalid_input"
)

// Error represents a windowed counter error.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "windowed counter error"
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
