// Package apperr carries the error taxonomy shared by the HTTP handlers
// and the socket controller. Handlers recover these at the boundary and
// turn them into one user-visible message; they never crash a connection.
package apperr

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error   { return New(CodeInvalidArgument, msg) }
func NotFound(msg string) error     { return New(CodeNotFound, msg) }
func Conflict(msg string) error     { return New(CodeConflict, msg) }
func Forbidden(msg string) error    { return New(CodeForbidden, msg) }
func Unauthorized(msg string) error { return New(CodeUnauthenticated, msg) }
func Internal(msg string) error     { return New(CodeInternal, msg) }

// CodeOf extracts the taxonomy code, CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// MessageOf is the user-visible message for boundary responses.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
