// Package apperr classifies domain errors so transports can map them to
// status codes without knowing every package's sentinels.
package apperr

import (
	"errors"
	"fmt"
)

// Error kinds. Domain errors unwrap to exactly one of these.
var (
	ErrInvalid  = errors.New("invalid")
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Error carries a human readable message and its kind.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.kind }

// Invalid builds an input validation error.
func Invalid(msg string) error {
	return &Error{kind: ErrInvalid, msg: msg}
}

// Invalidf is Invalid with formatting.
func Invalidf(format string, args ...any) error {
	return &Error{kind: ErrInvalid, msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a missing-resource error.
func NotFound(msg string) error {
	return &Error{kind: ErrNotFound, msg: msg}
}

// Conflict builds an error for writes that collide with existing state.
func Conflict(msg string) error {
	return &Error{kind: ErrConflict, msg: msg}
}

// Required returns the canonical error for a missing field.
func Required(field string) error {
	return Invalidf("%s is required", field)
}
