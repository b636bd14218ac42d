package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError reports a request that never produced a usable response:
// connection failures, canceled contexts and undecodable success bodies.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseError reports a non-success status from the task service.
type ResponseError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsResponse reports whether err is or wraps a ResponseError.
func IsResponse(err error) bool {
	var target *ResponseError
	return errors.As(err, &target)
}

// StatusCode returns the HTTP status carried by a ResponseError, or 0.
func StatusCode(err error) int {
	var target *ResponseError
	if errors.As(err, &target) {
		return target.StatusCode
	}
	return 0
}
