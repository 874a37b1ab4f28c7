package store

import "errors"

var (
	// ErrSnapshotNotFound is returned by Load when no snapshot exists for
	// the collection, or when the persisted snapshot is older than the
	// caller's staleness bound.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotStale is returned (wrapped together with
	// ErrSnapshotNotFound) when a snapshot exists but its CapturedAt is
	// older than the caller-supplied maxAge.
	ErrSnapshotStale = errors.New("snapshot is stale")

	// ErrCorruptSnapshot is returned when persisted bytes cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")

	// ErrBackend wraps failures of the underlying byte store (write errors,
	// quota, I/O). Persistence failures are reported, never swallowed; the
	// caller's in-memory state stays authoritative.
	ErrBackend = errors.New("storage backend failure")
)
