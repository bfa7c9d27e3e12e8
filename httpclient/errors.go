package httpclient

import (
	"errors"
	"fmt"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, etc).
	ErrCodeConnection
	// ErrCodeAuth indicates a 401/403 from the upstream.
	ErrCodeAuth
	// ErrCodeRejected indicates any other 4xx.
	ErrCodeRejected
	// ErrCodeRateLimit indicates rate limiting (429).
	ErrCodeRateLimit
	// ErrCodeServer indicates a server-side error (5xx).
	ErrCodeServer
	// ErrCodeDecode indicates an unparseable response body.
	ErrCodeDecode
	// ErrCodeValidation indicates the request could not be built.
	ErrCodeValidation
	// ErrCodeCircuitOpen indicates the breaker refused the call.
	ErrCodeCircuitOpen
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeRejected:
		return "rejected"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeServer:
		return "server"
	case ErrCodeDecode:
		return "decode"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP client error.
type Error struct {
	// StatusCode is the HTTP status code (0 for connection-level errors).
	StatusCode int
	Code       ErrorCode
	Message    string
	// Body is the upstream response body, if any.
	Body []byte
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Err: err}
}

// NewValidationError creates a request-construction error.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// NewDecodeError creates a response decoding error.
func NewDecodeError(err error) *Error {
	return &Error{Code: ErrCodeDecode, Message: err.Error(), Err: err}
}

// NewCircuitOpenError creates the error returned while the breaker is open.
func NewCircuitOpenError(name string) *Error {
	return &Error{Code: ErrCodeCircuitOpen, Message: name + " is unavailable"}
}

// ClassifyStatusCode converts an HTTP status code into a typed error.
// Returns nil for 2xx status codes.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	e := &Error{StatusCode: statusCode, Message: fmt.Sprintf("HTTP %d", statusCode), Body: body}
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == 401 || statusCode == 403:
		e.Code = ErrCodeAuth
	case statusCode == 429:
		e.Code = ErrCodeRateLimit
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeRejected
	default:
		e.Code = ErrCodeServer
	}
	return e
}

// CodeOf returns the classification of err, and false if err is not an *Error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

// IsUpstreamFailure reports errors that indicate the upstream itself is
// unhealthy. Rejections of our request do not count.
func IsUpstreamFailure(err error) bool {
	code, ok := CodeOf(err)
	if !ok {
		return err != nil
	}
	switch code {
	case ErrCodeTimeout, ErrCodeConnection, ErrCodeServer, ErrCodeRateLimit:
		return true
	default:
		return false
	}
}
