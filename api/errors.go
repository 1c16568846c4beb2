// Package api
// Author: momentics <momentics@gmail.com>
//
// Status codes and error values shared by every transport package.

package api

import (
	"errors"
	"fmt"
)

// ErrorCode represents the status kinds reported by transport operations.
type ErrorCode int

const (
	CodeOK ErrorCode = iota
	CodeFail
	CodeBlocked
	CodeSocketError
	CodeHostnameToAddr
	CodeTCPHangup
	CodeNotSupported
)

func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeFail:
		return "fail"
	case CodeBlocked:
		return "blocked"
	case CodeSocketError:
		return "socket error"
	case CodeHostnameToAddr:
		return "hostname to address failed"
	case CodeTCPHangup:
		return "tcp hangup"
	case CodeNotSupported:
		return "not supported"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Common errors used across the library. Compare with errors.Is; wrapped
// errors carrying the same code match.
var (
	ErrFailed       = NewError(CodeFail, "operation failed")
	ErrBlocked      = NewError(CodeBlocked, "operation would block")
	ErrSocket       = NewError(CodeSocketError, "socket error")
	ErrHostname     = NewError(CodeHostnameToAddr, "hostname to address failed")
	ErrHangup       = NewError(CodeTCPHangup, "peer closed connection")
	ErrNotSupported = NewError(CodeNotSupported, "operation not supported")
)

// Error represents a structured error with code, cause and context.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause, usually a syscall errno.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an error of the given code around cause.
func Wrap(code ErrorCode, cause error, message string) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// CodeOf classifies err. nil maps to CodeOK, unknown errors to CodeFail.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeFail
}
