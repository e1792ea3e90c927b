package json22plugin

import (
	"errors"
	"fmt"

	"github.com/kbukum/gokit-json22/json22"
)

// DecodeError reports a response whose body could not be decoded. It keeps
// every byte of text received before the failure.
type DecodeError struct {
	// RawResponse is the concatenation of all chunks received.
	RawResponse string
	// StatusCode is the HTTP status of the response.
	StatusCode int
	// Err is the codec or stream failure.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("json22plugin: decode response (HTTP %d): %v", e.StatusCode, e.Err)
}

// Unwrap returns the underlying failure.
func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err contains a *DecodeError.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// IsContextResolution reports whether err was caused by a constructor name
// missing from the parse context.
func IsContextResolution(err error) bool {
	_, ok := MissingTypeName(err)
	return ok
}

// MissingTypeName returns the unresolved constructor name carried by err.
func MissingTypeName(err error) (string, bool) {
	var e *json22.UnresolvedTypeError
	if errors.As(err, &e) {
		return e.Name, true
	}
	return "", false
}
