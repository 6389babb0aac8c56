// Package train implements the training engine: the epoch loop that
// drives a compiled network over a dataset split, the live session
// record it reports progress through, and the control handle used to
// pause, resume and stop it.
//
// One Engine owns one State for its whole life. Many goroutines may
// snapshot the State concurrently while the engine appends to it;
// every reader gets a copy, never a reference into live data.
package train

import (
	"hash/fnv"
	"sync"
	"time"
)

// Poll interval hints attached to every session snapshot. Clients
// are expected to slow down once a session is terminal.
const (
	pollHintActive   = 1.5
	pollHintTerminal = 5.0
)

// Status is the lifecycle state of a training session.
type Status string

// Session lifecycle states. Completed, Stopped and Failed are
// absorbing.
const (
	Pending   Status = "pending"
	Running   Status = "running"
	Paused    Status = "paused"
	Completed Status = "completed"
	Stopped   Status = "stopped"
	Failed    Status = "failed"
)

// Terminal returns whether the status is absorbing.
func (s Status) Terminal() bool {
	return s == Completed || s == Stopped || s == Failed
}

// PollInterval returns the poll hint appropriate for a status, used
// when rebuilding snapshots from external storage.
func PollInterval(s Status) float64 {
	if s.Terminal() {
		return pollHintTerminal
	}
	return pollHintActive
}

// Metric records one completed training epoch. Accuracy is nil for
// regression sessions, where top-1 accuracy has no meaning.
type Metric struct {
	Epoch     int       `json:"epoch"`
	Loss      float64   `json:"loss"`
	Accuracy  *float64  `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a point-in-time view of one training run. The live
// record lives inside a State; callers only ever hold copies.
type Session struct {
	ID           string     `json:"session_id"`
	ModelID      string     `json:"model_id"`
	DatasetID    string     `json:"dataset_id"`
	Status       Status     `json:"status"`
	TotalEpochs  int        `json:"total_epochs"`
	CurrentEpoch int        `json:"current_epoch"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	Metrics      []Metric   `json:"metrics"`
	ErrorMessage string     `json:"error_message,omitempty"`
	PollHint     float64    `json:"poll_interval_hint_seconds"`
}

// Seed derives the deterministic RNG seed for a session from its id,
// so rerunning a session id replays the same shuffles.
func Seed(id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}

// State owns the live session record. The engine mutates it at epoch
// boundaries; pollers snapshot it concurrently.
type State struct {
	mu      sync.RWMutex
	session Session
}

// NewState returns the state for a newly admitted session.
func NewState(id, modelID, datasetID string, totalEpochs int) *State {
	return &State{
		session: Session{
			ID:          id,
			ModelID:     modelID,
			DatasetID:   datasetID,
			Status:      Pending,
			TotalEpochs: totalEpochs,
			StartTime:   time.Now().UTC(),
			Metrics:     []Metric{},
			PollHint:    pollHintActive,
		},
	}
}

// Snapshot returns a copy of the session with metrics filtered to
// epochs strictly greater than sinceEpoch. Pass 0 for the full
// history.
func (s *State) Snapshot(sinceEpoch int) Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.session
	session.Metrics = make([]Metric, 0, len(s.session.Metrics))
	for _, m := range s.session.Metrics {
		if m.Epoch > sinceEpoch {
			session.Metrics = append(session.Metrics, m)
		}
	}
	if s.session.EndTime != nil {
		end := *s.session.EndTime
		session.EndTime = &end
	}
	return session
}

// Status returns the current lifecycle state.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Status
}

// setStatus flips the lifecycle state of a live session.
func (s *State) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Status = status
}

// beginEpoch records that the given epoch is underway.
func (s *State) beginEpoch(epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.CurrentEpoch = epoch
}

// appendMetric appends one finished epoch. Pollers never observe a
// partially written metric.
func (s *State) appendMetric(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Metrics = append(s.session.Metrics, m)
}

// finish moves the session to a terminal status, stamping the end
// time and slowing the poll hint.
func (s *State) finish(status Status, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.session.Status = status
	s.session.EndTime = &now
	s.session.ErrorMessage = errMsg
	s.session.PollHint = pollHintTerminal
}
