package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer. Handlers map them to status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// KindError carries a user facing message together with its kind
type KindError struct {
	Kind    error
	Message string
}

func (e *KindError) Error() string {
	return e.Message
}

func (e *KindError) Unwrap() error {
	return e.Kind
}

// NotFound builds a not found error with the given message
func NotFound(format string, args ...interface{}) error {
	return &KindError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput builds a validation error with the given message
func InvalidInput(format string, args ...interface{}) error {
	return &KindError{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a uniqueness error with the given message
func Conflict(format string, args ...interface{}) error {
	return &KindError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}
