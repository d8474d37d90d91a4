package core

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeInvalidInput     = "INVALID_INPUT"     // message failed size validation; expected, not logged as error
	CodeTimeout          = "TIMEOUT"           // store/model/embedding call exceeded its deadline
	CodeValidationFailed = "VALIDATION_FAILED" // model output does not parse or match the expected schema
	CodeStoreFailed      = "STORE_FAILED"      // underlying store call failed
	CodeUnsupported      = "UNSUPPORTED"       // operation kind outside the known set
)

// Error is a structured error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Err     error // wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two Errors by code.
func (e *Error) Is(target error) bool {
	var ce *Error
	if errors.As(target, &ce) {
		return e.Code == ce.Code
	}
	return false
}

// NewError creates an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates an Error wrapping an existing error.
func WrapError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrCode extracts the code from an error, or "" if it is not an Error.
func ErrCode(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
