package errors

import (
	"errors"
	"fmt"
)

// Error codes attached by the story player.
const (
	CodePlayerEmptySession = "PLAYER_EMPTY_SESSION"
	CodePlayerInvalidItem  = "PLAYER_INVALID_ITEM"
	CodePlayerIndexRange   = "PLAYER_INDEX_RANGE"
	CodePlayerReadyTimeout = "PLAYER_READY_TIMEOUT"
)

// Error carries a machine readable code next to the wrapped cause.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Message: message, Err: err}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// GetCode returns the code of the outermost coded error in the chain.
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

