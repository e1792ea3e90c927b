package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request or connection timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a transport failure before a usable response.
	ErrCodeConnection
	// ErrCodeAuth is 401 or 403.
	ErrCodeAuth
	ErrCodeNotFound
	ErrCodeRateLimit
	// ErrCodeValidation covers other 4xx responses and requests that could not be built.
	ErrCodeValidation
	ErrCodeServer
	// ErrCodeDecode indicates the installed parser rejected the response body.
	ErrCodeDecode
)

var codeNames = [...]string{
	ErrCodeTimeout:    "timeout",
	ErrCodeConnection: "connection",
	ErrCodeAuth:       "auth",
	ErrCodeNotFound:   "not_found",
	ErrCodeRateLimit:  "rate_limit",
	ErrCodeValidation: "validation",
	ErrCodeServer:     "server",
	ErrCodeDecode:     "decode",
}

func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return "unknown"
	}
	return codeNames[c]
}

// Error is a classified HTTP client error.
type Error struct {
	// StatusCode is 0 for errors raised before a response arrived.
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// Body is the buffered response body, when there was one.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapError(code ErrorCode, retryable bool, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Retryable: retryable, Err: err}
}

// NewTimeoutError wraps a deadline failure. Timeouts are retryable.
func NewTimeoutError(err error) *Error { return wrapError(ErrCodeTimeout, true, err) }

// NewConnectionError wraps a transport failure. Connection errors are retryable.
func NewConnectionError(err error) *Error { return wrapError(ErrCodeConnection, true, err) }

// NewValidationError reports a request that could not be encoded or built.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// NewDecodeError wraps a parser failure. The parser's error stays reachable
// through errors.As, and decode errors are never retried.
func NewDecodeError(statusCode int, body []byte, err error) *Error {
	e := wrapError(ErrCodeDecode, false, err)
	e.StatusCode, e.Body = statusCode, body
	return e
}

type statusRule struct {
	match     func(status int) bool
	code      ErrorCode
	retryable bool
}

// First match wins.
var statusRules = []statusRule{
	{func(s int) bool { return s == http.StatusUnauthorized || s == http.StatusForbidden }, ErrCodeAuth, false},
	{func(s int) bool { return s == http.StatusNotFound }, ErrCodeNotFound, false},
	{func(s int) bool { return s == http.StatusTooManyRequests }, ErrCodeRateLimit, true},
	{func(s int) bool { return s >= 400 && s < 500 }, ErrCodeValidation, false},
	{func(s int) bool { return s >= 500 }, ErrCodeServer, true},
}

// ClassifyStatusCode converts a non-2xx status into a typed error and returns
// nil for 2xx. Unexpected statuses (1xx, 3xx) are non-retryable server errors.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{
		StatusCode: statusCode,
		Code:       ErrCodeServer,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
	for _, r := range statusRules {
		if r.match(statusCode) {
			e.Code, e.Retryable = r.code, r.retryable
			break
		}
	}
	return e
}

// HasCode reports whether err wraps an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsDecode reports whether err is a response decode failure.
func IsDecode(err error) bool { return HasCode(err, ErrCodeDecode) }

// IsRetryable is the default retry predicate for the adapter.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
