// Package errs defines the coded error type shared by the chess core and the engine session.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies a failure so callers can decide whether to retry, skip or surface it.
type Code string

const (
	// MalformedRecord is a FEN, UCI or notation syntax violation.
	MalformedRecord Code = "MALFORMED_RECORD"
	// IllegalMove is a well-formed move that the current position does not allow.
	IllegalMove Code = "ILLEGAL_MOVE"
	// EngineUnavailable is a process spawn or handshake failure.
	EngineUnavailable Code = "ENGINE_UNAVAILABLE"
	// EngineNotReady is an analysis attempted outside the Ready state.
	EngineNotReady Code = "ENGINE_NOT_READY"
	// EngineProtocolError is an unexpected exit or unparseable output mid-analysis.
	EngineProtocolError Code = "ENGINE_PROTOCOL_ERROR"
	// InvalidRequest is an analysis request outside the accepted bounds.
	InvalidRequest Code = "INVALID_REQUEST"
)

// Sentinels for errors.Is.
var (
	ErrMalformedRecord     = &Error{Code: MalformedRecord}
	ErrIllegalMove         = &Error{Code: IllegalMove}
	ErrEngineUnavailable   = &Error{Code: EngineUnavailable}
	ErrEngineNotReady      = &Error{Code: EngineNotReady}
	ErrEngineProtocolError = &Error{Code: EngineProtocolError}
	ErrInvalidRequest      = &Error{Code: InvalidRequest}
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return string(e.Code)
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a coded error around a cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
