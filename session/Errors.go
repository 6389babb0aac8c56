package session

import "errors"

// Sentinel errors surfaced by the manager. The HTTP layer maps them
// onto status codes.
var (
	// ErrSessionNotFound marks an unknown or fully evicted session
	// id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrActiveSession rejects starting a second concurrent session
	// for the same model.
	ErrActiveSession = errors.New("model already has an active session")

	// ErrIllegalTransition rejects control requests that make no
	// sense for the session's current status.
	ErrIllegalTransition = errors.New("illegal session transition")

	// ErrSessionNotReady rejects predictions against sessions that
	// have not completed training.
	ErrSessionNotReady = errors.New("session has not completed training")

	// ErrQueueFull rejects admissions while the job queue cannot
	// take another session.
	ErrQueueFull = errors.New("training queue is full")
)
