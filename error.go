package bserve

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Code is an error code that mirrors the http status codes. The server uses it to classify a failed exchange
// into the response it synthesizes.
type Code int

const (
	CodeUnknown                     Code = 0
	CodeBadRequest                  Code = http.StatusBadRequest                  // RFC 9110, 15.5.1
	CodeNotFound                    Code = http.StatusNotFound                    // RFC 9110, 15.5.5
	CodeMethodNotAllowed            Code = http.StatusMethodNotAllowed            // RFC 9110, 15.5.6
	CodeRequestTimeout              Code = http.StatusRequestTimeout              // RFC 9110, 15.5.9
	CodeRequestEntityTooLarge       Code = http.StatusRequestEntityTooLarge       // RFC 9110, 15.5.14
	CodeRequestHeaderFieldsTooLarge Code = http.StatusRequestHeaderFieldsTooLarge // RFC 6585, 5

	CodeInternalServerError Code = http.StatusInternalServerError // RFC 9110, 15.6.1
	CodeNotImplemented      Code = http.StatusNotImplemented      // RFC 9110, 15.6.2
	CodeServiceUnavailable  Code = http.StatusServiceUnavailable  // RFC 9110, 15.6.4
)

var (
	// ErrNotReady is reported by a service's readiness probe when it cannot take a call right now.
	ErrNotReady = errors.New("service not ready")
	// ErrRequestTooLarge is returned when the header block does not terminate within the size cap.
	ErrRequestTooLarge = errors.New("request too large")
	// ErrIncompleteRequest is returned when the peer closes before the header block terminates.
	ErrIncompleteRequest = errors.New("connection closed before end of headers")
	// ErrNilResponse is returned when a service reports success without a response.
	ErrNilResponse = errors.New("service returned a nil response")
	// ErrServerClosed is returned by [Server.Serve] after the server stopped accepting connections.
	ErrServerClosed = errors.New("bserve: server closed")
)

// Error describes an http error.
type Error struct {
	code Code
	err  error
}

// NewError inits a new error given the error code.
func NewError(c Code, underlying error) *Error {
	return &Error{c, underlying}
}

func (e *Error) Code() Code    { return e.code }
func (e *Error) Unwrap() error { return e.err }
func (e *Error) Error() string {
	status := http.StatusText(int(e.Code()))
	if status == "" {
		status = "Unknown"
	}

	return fmt.Sprintf("%s: %s", status, e.err.Error())
}

// CodeOf returns the error's status code if it is or wraps an [*Error] and
// [CodeUnknown] otherwise.
func CodeOf(err error) Code {
	if codeErr, ok := asError(err); ok {
		return codeErr.Code()
	}
	return CodeUnknown
}

// asError uses errors.As to unwrap any error and look for a *Error.
func asError(err error) (*Error, bool) {
	var codeErr *Error
	ok := errors.As(err, &codeErr)
	return codeErr, ok
}
