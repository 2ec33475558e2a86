package internaltypes

import (
	"errors"
	"fmt"
)

// Error classes. Match them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrProvider     = errors.New("provider error")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a caller-visible failure: one descriptive message, a class, and
// optional details echoed back to the caller (expected params, supported values).
type Error struct {
	Class   error
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Class}
	}
	return []error{e.Class, e.Err}
}

func Validation(msg string, details map[string]any) *Error {
	return &Error{Class: ErrValidation, Message: msg, Details: details}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Class: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Class: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Provider wraps an adapter failure with the operation that triggered it.
func Provider(op string, err error) *Error {
	return &Error{Class: ErrProvider, Message: fmt.Sprintf("%s: %v", op, err), Err: err}
}

// DetailsOf returns the caller-facing details attached to err, if any.
func DetailsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
