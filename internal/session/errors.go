package session

import "errors"

var (
	// ErrCorruptSnapshot is returned when a persisted snapshot has an
	// unrecognized schema version or is missing required fields.
	ErrCorruptSnapshot = errors.New("corrupt session snapshot")

	// ErrSnapshotNotFound is returned by the file store when no snapshot
	// has been persisted yet.
	ErrSnapshotNotFound = errors.New("session snapshot not found")
)
