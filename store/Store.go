// Package store persists session histories and model configurations
// so they survive cache eviction and process restarts.
//
// The store is optional: the service runs fully in memory without
// one. When configured, the session manager writes through on every
// admitted session, appended metric and status transition, and reads
// back only for terminal sessions that have aged out of the in-memory
// retention cache.
package store

import (
	"context"

	"github.com/samuelfneumann/gotrain/modelstore"
	"github.com/samuelfneumann/gotrain/train"
)

// Store is the persistence contract the session manager and model
// store write through to. Implementations must be safe for
// concurrent use; callers treat every method as best-effort and log
// failures rather than aborting training.
type Store interface {
	// CreateSession records a freshly admitted session.
	CreateSession(ctx context.Context, s train.Session) error

	// AppendMetric records one finished epoch of a session.
	AppendMetric(ctx context.Context, sessionID string,
		m train.Metric) error

	// UpdateStatus records a lifecycle transition, including the
	// end time and error message once the session is terminal.
	UpdateStatus(ctx context.Context, s train.Session) error

	// LoadSession rebuilds a full session snapshot, metrics in
	// epoch order.
	LoadSession(ctx context.Context, sessionID string) (train.Session,
		error)

	// SaveModelConfig upserts a model configuration.
	SaveModelConfig(ctx context.Context, cfg modelstore.Config) error

	// MarkInterrupted fails every session left non-terminal by a
	// previous process and returns how many were updated. Called
	// once at startup, before any new session is admitted.
	MarkInterrupted(ctx context.Context) (int64, error)

	// Close releases the underlying connections.
	Close() error
}
