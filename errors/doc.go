// Package errors provides structured application errors with
// machine-readable codes, HTTP status mapping, and retryable detection.
//
// The echo server renders these errors to clients; decode and
// negotiation failures map onto the codes defined in codes.go.
package errors
