// Package session implements the session manager: admission of new
// training sessions, the bounded worker pool they run on, control
// signal forwarding, polling snapshots, and retirement of terminal
// sessions.
//
// The manager is the only owner of live sessions. HTTP handlers hold
// the manager and receive value snapshots; they never touch engines
// or the pool directly.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/samuelfneumann/gotrain/arch"
	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/network"
	"github.com/samuelfneumann/gotrain/solver"
	"github.com/samuelfneumann/gotrain/store"
	"github.com/samuelfneumann/gotrain/train"
)

// defaultQueueDepth bounds how many admitted sessions may wait for a
// worker.
const defaultQueueDepth = 256

// entry binds one live or retired session to its engine and control
// handle.
type entry struct {
	id      string
	modelID string
	engine  *train.Engine
	control *train.Control
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Workers bounds how many sessions train concurrently. Defaults
	// to 1.
	Workers int

	// Retention is how many terminal sessions stay queryable in
	// memory. Defaults to 64.
	Retention int

	// Datasets resolves dataset ids at admission time.
	Datasets *dataset.Registry

	// Store, when non-nil, receives write-through persistence of
	// session progress and serves fully evicted terminal sessions.
	Store store.Store
}

// Manager owns every training session in the process: the live map,
// the worker pool that drains admitted sessions, and the retirement
// cache of terminal ones.
type Manager struct {
	mu         sync.RWMutex
	entries    map[string]*entry // live: pending, running or paused
	modelIndex map[string]string // model id -> live session id
	retired    *lru.Cache[string, *entry]

	jobQueue chan *entry
	workers  []*worker

	datasets *dataset.Registry
	store    store.Store

	registry *prometheus.Registry
	metrics  *metrics
	logger   *zap.Logger
}

// NewManager builds a manager and starts its worker pool.
func NewManager(cfg ManagerConfig, logger *zap.Logger) (*Manager, error) {
	if cfg.Datasets == nil {
		return nil, fmt.Errorf("newManager: nil dataset registry")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Retention < 1 {
		cfg.Retention = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	retired, err := lru.New[string, *entry](cfg.Retention)
	if err != nil {
		return nil, fmt.Errorf("newManager: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := &Manager{
		entries:    make(map[string]*entry),
		modelIndex: make(map[string]string),
		retired:    retired,
		jobQueue:   make(chan *entry, defaultQueueDepth),
		datasets:   cfg.Datasets,
		store:      cfg.Store,
		registry:   registry,
		metrics:    newMetrics(registry),
		logger:     logger,
	}

	m.workers = make([]*worker, cfg.Workers)
	for i := range m.workers {
		m.workers[i] = newWorker(i, m)
		go m.workers[i].start()
	}

	logger.Info("session manager started",
		zap.Int("workers", cfg.Workers),
		zap.Int("retention", cfg.Retention))
	return m, nil
}

// Registry exposes the manager's prometheus collectors for serving.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// StartRequest describes one training admission.
type StartRequest struct {
	ModelID   string
	DatasetID string
	Layers    []arch.Layer
	Options   train.Options
}

// StartTraining validates, compiles and admits a new session,
// returning its pending snapshot without waiting for a worker. The
// single-active-session-per-model rule is enforced under the session
// map's exclusive lock, so concurrent starts for one model admit at
// most one session.
func (m *Manager) StartTraining(ctx context.Context,
	req StartRequest) (train.Session, error) {
	provider, err := m.datasets.Get(req.DatasetID)
	if err != nil {
		return train.Session{}, err
	}
	ds := provider.Spec()

	layers, err := arch.Validate(req.Layers, ds)
	if err != nil {
		return train.Session{}, err
	}

	hp, err := req.Options.Resolve(ds.Recommended)
	if err != nil {
		return train.Session{}, err
	}

	split, err := provider.Load(req.Options.MaxSamples)
	if err != nil {
		return train.Session{}, fmt.Errorf("startTraining: %w", err)
	}

	sol, err := solver.New(hp.Optimizer, hp.LearningRate)
	if err != nil {
		return train.Session{}, err
	}

	sessionID := uuid.NewString()
	net, err := network.Compile(layers, ds, train.Seed(sessionID))
	if err != nil {
		return train.Session{}, err
	}

	ent := &entry{
		id:      sessionID,
		modelID: req.ModelID,
		control: train.NewControl(),
		engine: train.NewEngine(train.Config{
			SessionID: sessionID,
			ModelID:   req.ModelID,
			Dataset:   ds,
			Split:     split,
			Network:   net,
			Solver:    sol,
			Epochs:    hp.Epochs,
			BatchSize: hp.BatchSize,
			Logger:    m.logger,
			Recorder:  m.recorder(),
			OnEpoch: func(_ train.Metric, elapsed time.Duration) {
				m.metrics.epochSeconds.Observe(elapsed.Seconds())
			},
		}),
	}

	m.mu.Lock()
	if liveID, ok := m.modelIndex[req.ModelID]; ok {
		if live, exists := m.entries[liveID]; exists &&
			!live.engine.State().Status().Terminal() {
			m.mu.Unlock()
			return train.Session{}, fmt.Errorf("%w: model %q",
				ErrActiveSession, req.ModelID)
		}
	}
	m.entries[sessionID] = ent
	m.modelIndex[req.ModelID] = sessionID
	m.mu.Unlock()

	select {
	case m.jobQueue <- ent:
	default:
		m.mu.Lock()
		delete(m.entries, sessionID)
		if m.modelIndex[req.ModelID] == sessionID {
			delete(m.modelIndex, req.ModelID)
		}
		m.mu.Unlock()
		return train.Session{}, ErrQueueFull
	}

	snapshot := ent.engine.State().Snapshot(0)
	if m.store != nil {
		if err := m.store.CreateSession(ctx, snapshot); err != nil {
			m.logger.Warn("session create write failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	m.metrics.started.Inc()
	m.metrics.active.Inc()
	m.metrics.queueDepth.Set(float64(len(m.jobQueue)))

	m.logger.Info("session admitted",
		zap.String("session_id", sessionID),
		zap.String("model_id", req.ModelID),
		zap.String("dataset_id", req.DatasetID),
		zap.Int("epochs", hp.Epochs))
	return snapshot, nil
}

// Get returns a read-only snapshot of a session with metrics
// filtered to epochs strictly greater than sinceEpoch. Live and
// retired sessions are served from memory; fully evicted terminal
// sessions fall back to the store when one is configured.
func (m *Manager) Get(ctx context.Context, sessionID string,
	sinceEpoch int) (train.Session, error) {
	if ent, ok := m.lookup(sessionID); ok {
		return ent.engine.State().Snapshot(sinceEpoch), nil
	}

	if m.store != nil {
		loaded, err := m.store.LoadSession(ctx, sessionID)
		if err == nil {
			return filterSince(loaded, sinceEpoch), nil
		}
		m.logger.Debug("session not in store",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	return train.Session{}, fmt.Errorf("%w: %v", ErrSessionNotFound,
		sessionID)
}

// Stop requests that a session stop at its next epoch boundary. Stop
// on a terminal session is a no-op success.
func (m *Manager) Stop(sessionID string) (train.Session, error) {
	ent, ok := m.lookup(sessionID)
	if !ok {
		return train.Session{}, fmt.Errorf("%w: %v", ErrSessionNotFound,
			sessionID)
	}

	if !ent.engine.State().Status().Terminal() {
		ent.control.RequestStop()
	}
	return ent.engine.State().Snapshot(0), nil
}

// Pause requests that a running session pause at its next epoch
// boundary. Pause on an already-paused session is a no-op success.
func (m *Manager) Pause(sessionID string) (train.Session, error) {
	ent, ok := m.lookup(sessionID)
	if !ok {
		return train.Session{}, fmt.Errorf("%w: %v", ErrSessionNotFound,
			sessionID)
	}

	switch status := ent.engine.State().Status(); status {
	case train.Running, train.Paused:
		ent.control.RequestPause()
	default:
		return train.Session{}, fmt.Errorf("%w: cannot pause a %v "+
			"session", ErrIllegalTransition, status)
	}
	return ent.engine.State().Snapshot(0), nil
}

// Resume clears a pause. Resume on a running session is a no-op
// success; it also cancels a pause that has not yet taken effect.
func (m *Manager) Resume(sessionID string) (train.Session, error) {
	ent, ok := m.lookup(sessionID)
	if !ok {
		return train.Session{}, fmt.Errorf("%w: %v", ErrSessionNotFound,
			sessionID)
	}

	switch status := ent.engine.State().Status(); status {
	case train.Running, train.Paused:
		ent.control.RequestResume()
	default:
		return train.Session{}, fmt.Errorf("%w: cannot resume a %v "+
			"session", ErrIllegalTransition, status)
	}
	return ent.engine.State().Snapshot(0), nil
}

// Predict proxies a prediction to a completed session's engine.
func (m *Manager) Predict(sessionID string,
	inputs []float64) (train.Prediction, error) {
	ent, ok := m.lookup(sessionID)
	if !ok {
		return train.Prediction{}, fmt.Errorf("%w: %v",
			ErrSessionNotFound, sessionID)
	}

	if status := ent.engine.State().Status(); status != train.Completed {
		return train.Prediction{}, fmt.Errorf("%w: session is %v",
			ErrSessionNotReady, status)
	}
	return ent.engine.Predict(inputs)
}

// Close sends a best-effort stop to every live session and waits for
// the workers to drain, up to ctx's deadline.
func (m *Manager) Close(ctx context.Context) error {
	m.logger.Info("session manager shutting down")

	m.mu.RLock()
	for _, ent := range m.entries {
		ent.control.RequestStop()
	}
	m.mu.RUnlock()

	for _, w := range m.workers {
		w.stop <- true
	}
	for _, w := range m.workers {
		select {
		case <-w.stopped:
		case <-ctx.Done():
			m.logger.Warn("abandoning workers", zap.Error(ctx.Err()))
			return ctx.Err()
		}
	}

	m.logger.Info("session manager stopped")
	return nil
}

// lookup finds a session in the live map, then in the retirement
// cache.
func (m *Manager) lookup(sessionID string) (*entry, bool) {
	m.mu.RLock()
	ent, ok := m.entries[sessionID]
	m.mu.RUnlock()
	if ok {
		return ent, true
	}
	return m.retired.Get(sessionID)
}

// retire moves a finished session from the live table to the
// retirement cache. The model index entry is cleared only if it
// still points at this session, since a newer session may have
// already replaced a terminal-but-unretired one.
func (m *Manager) retire(ent *entry, final train.Session) {
	m.mu.Lock()
	delete(m.entries, ent.id)
	if m.modelIndex[ent.modelID] == ent.id {
		delete(m.modelIndex, ent.modelID)
	}
	m.mu.Unlock()

	m.retired.Add(ent.id, ent)

	m.metrics.active.Dec()
	m.metrics.finished.WithLabelValues(string(final.Status)).Inc()
}

// recorder adapts the configured store to the engine's write-through
// seam, or reports no recorder when persistence is disabled.
func (m *Manager) recorder() train.Recorder {
	if m.store == nil {
		return nil
	}
	return storeRecorder{store: m.store}
}

// storeRecorder bridges engine write-through calls onto the store.
// The engine logs failures and keeps training.
type storeRecorder struct {
	store store.Store
}

func (r storeRecorder) AppendMetric(sessionID string,
	metric train.Metric) error {
	return r.store.AppendMetric(context.Background(), sessionID, metric)
}

func (r storeRecorder) UpdateStatus(s train.Session) error {
	return r.store.UpdateStatus(context.Background(), s)
}

// filterSince drops metrics at or below sinceEpoch from a stored
// snapshot, mirroring State.Snapshot's contract.
func filterSince(s train.Session, sinceEpoch int) train.Session {
	if sinceEpoch <= 0 {
		return s
	}

	kept := make([]train.Metric, 0, len(s.Metrics))
	for _, metric := range s.Metrics {
		if metric.Epoch > sinceEpoch {
			kept = append(kept, metric)
		}
	}
	s.Metrics = kept
	return s
}
