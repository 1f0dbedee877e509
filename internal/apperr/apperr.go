// Package apperr defines the errors that cross the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of boundary error.
type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST" // 400
	CodeNotFound       Code = "NOT_FOUND"       // 404
	CodeUpstream       Code = "UPSTREAM"        // 502
	CodeInternal       Code = "INTERNAL"        // 500
)

// Error is a structured error carrying the HTTP status it maps to.
type Error struct {
	Code    Code
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidRequest creates a 400 error.
func InvalidRequest(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Status: http.StatusBadRequest, Message: msg}
}

// TooLarge creates a 413 error for an oversized request body.
func TooLarge(msg string) *Error {
	return &Error{Code: CodeInvalidRequest, Status: http.StatusRequestEntityTooLarge, Message: msg}
}

// NotFound creates a 404 error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: msg}
}

// Upstream creates a 502 error for a failed call to a third-party API.
func Upstream(msg string, err error) *Error {
	return &Error{Code: CodeUpstream, Status: http.StatusBadGateway, Message: msg, Err: err}
}

// Internal creates a 500 error.
func Internal(msg string, err error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// StatusOf returns the HTTP status for err: the status of the *Error in its
// chain, or 500.
func StatusOf(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Message returns the client-facing message for err. Errors that are not
// *Error produce fallback so internal details stay in the logs.
func Message(err error, fallback string) string {
	if e, ok := As(err); ok {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	return fallback
}
