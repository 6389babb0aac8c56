package session

import "go.uber.org/zap"

// worker drains the manager's job queue, training one session at a
// time. Sessions never migrate: the worker that picks one up runs it
// to its terminal state.
type worker struct {
	id      int
	manager *Manager
	logger  *zap.Logger
	stop    chan bool
	stopped chan bool
}

func newWorker(id int, m *Manager) *worker {
	return &worker{
		id:      id,
		manager: m,
		logger:  m.logger.With(zap.Int("worker_id", id)),
		stop:    make(chan bool, 1),
		stopped: make(chan bool, 1),
	}
}

// start runs the worker loop until told to stop.
func (w *worker) start() {
	w.logger.Info("worker started")
	defer func() {
		w.stopped <- true
		w.logger.Info("worker stopped")
	}()

	for {
		select {
		case <-w.stop:
			return
		case ent := <-w.manager.jobQueue:
			w.run(ent)
		}
	}
}

// run executes one session to its terminal state and retires it.
func (w *worker) run(ent *entry) {
	w.manager.metrics.queueDepth.Set(float64(len(w.manager.jobQueue)))

	logger := w.logger.With(zap.String("session_id", ent.id))
	logger.Info("session picked up")

	final := ent.engine.Run(ent.control)
	w.manager.retire(ent, final)

	logger.Info("session finished",
		zap.String("status", string(final.Status)),
		zap.Int("epochs_run", len(final.Metrics)))
}
