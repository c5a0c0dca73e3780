// Package domainerrors defines the error taxonomy the HTTP boundary maps to
// status codes. Services construct these; stores return sentinel errors and
// services translate. Handlers never inspect raw infrastructure errors.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code classifies an error for HTTP status mapping.
type Code string

const (
	CodeBadRequest  Code = "bad_request"
	CodeNotFound    Code = "not_found"
	CodeUnavailable Code = "source_unavailable"
	CodeInternal    Code = "internal_error"
)

// Error carries a code, a human-facing message, and an optional detail
// string surfaced in the response envelope.
type Error struct {
	Code    Code
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs a domain error without an underlying cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs a domain error around an underlying cause. The cause's
// message is exposed as Details so callers see why, not just what.
func Wrap(code Code, message string, err error) *Error {
	e := &Error{Code: code, Message: message, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// As unwraps err into an *Error if one is present in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}

// ToHTTPStatus maps an error code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
