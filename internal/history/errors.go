package history

import "errors"

// Sentinel errors for history operations.
var (
	// ErrRunNotFound is returned when no run has the requested ID.
	ErrRunNotFound = errors.New("history: run not found")

	// ErrInvalidRun is returned when a run lacks a source or status.
	ErrInvalidRun = errors.New("history: invalid run")
)
