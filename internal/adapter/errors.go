package adapter

import "errors"

var (
	// ErrRemoteUnavailable wraps transport-level failures: connection refused,
	// timeouts, DNS errors, and 5xx responses. The sync engine treats it as a
	// retriable fetch failure.
	ErrRemoteUnavailable = errors.New("remote record server unavailable")

	// ErrBadRequest wraps HTTP 400 responses.
	ErrBadRequest = errors.New("bad request")

	// ErrNotFound wraps HTTP 404 responses.
	ErrNotFound = errors.New("not found")
)
