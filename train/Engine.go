package train

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/network"
	"github.com/samuelfneumann/gotrain/solver"
	"github.com/samuelfneumann/gotrain/utils/floatutils"
	"github.com/samuelfneumann/gotrain/utils/intutils"
)

// divergenceThreshold is the epoch-average loss beyond which a
// session is declared to have diverged.
const divergenceThreshold = 1e6

// ErrNotCompleted is returned by Predict while the session has not
// yet completed all of its epochs.
var ErrNotCompleted = errors.New("session has not completed training")

// Recorder persists session progress as it happens. Implementations
// are called from the training goroutine and must not block
// indefinitely; write failures are logged and training continues.
type Recorder interface {
	AppendMetric(sessionID string, m Metric) error
	UpdateStatus(s Session) error
}

// Config assembles everything an Engine needs for one session.
type Config struct {
	SessionID string
	ModelID   string

	Dataset dataset.Spec
	Split   *dataset.Split
	Network *network.Network
	Solver  *solver.Solver

	Epochs    int
	BatchSize int

	// Logger may be nil, in which case the engine is silent.
	Logger *zap.Logger

	// Recorder may be nil when no write-through store is configured.
	Recorder Recorder

	// OnEpoch, when set, observes every appended metric along with
	// the epoch's wall time.
	OnEpoch func(m Metric, elapsed time.Duration)
}

// Engine drives one compiled network through the epoch loop,
// reporting progress through its State.
type Engine struct {
	cfg   Config
	state *State
	log   *zap.Logger
}

// NewEngine returns an engine for a pending session described by
// cfg.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		cfg: cfg,
		state: NewState(cfg.SessionID, cfg.ModelID, cfg.Dataset.ID,
			cfg.Epochs),
		log: logger.With(
			zap.String("session_id", cfg.SessionID),
			zap.String("model_id", cfg.ModelID),
			zap.String("dataset_id", cfg.Dataset.ID),
		),
	}
}

// State returns the engine's live session state for polling.
func (e *Engine) State() *State {
	return e.state
}

// Run executes the training loop until the session reaches a
// terminal state, honoring ctl at every epoch boundary. Run must be
// called exactly once per engine and returns the final snapshot.
func (e *Engine) Run(ctl *Control) (final Session) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("training panicked", zap.Any("panic", r))
			e.finish(Failed, fmt.Sprintf("UnexpectedInternal: %v", r))
			final = e.state.Snapshot(0)
		}
	}()

	// A stop that raced admission wins before any work happens.
	if ctl.StopRequested() {
		e.finish(Stopped, "")
		return e.state.Snapshot(0)
	}

	e.setStatus(Running)
	e.log.Info("training started",
		zap.Int("epochs", e.cfg.Epochs),
		zap.Int("batch_size", e.cfg.BatchSize),
		zap.String("optimizer", string(e.cfg.Solver.Type)),
		zap.Int("train_samples", e.cfg.Split.NumTrain()),
		zap.Int("test_samples", e.cfg.Split.NumTest()),
		zap.Int("parameters", e.cfg.Network.NumValues()),
	)

	rng := rand.New(rand.NewSource(Seed(e.cfg.SessionID)))

	for epoch := 1; epoch <= e.cfg.Epochs; epoch++ {
		e.state.beginEpoch(epoch)
		begin := time.Now()

		avgLoss, err := e.trainEpoch(rng)
		if err != nil {
			e.log.Error("epoch failed", zap.Int("epoch", epoch),
				zap.Error(err))
			e.finish(Failed, fmt.Sprintf("UnexpectedInternal: %v", err))
			return e.state.Snapshot(0)
		}

		// NaN or Inf means the parameters are already garbage; the
		// epoch's metric is not worth recording.
		if !floatutils.Finite(avgLoss) {
			e.log.Warn("non-finite loss", zap.Int("epoch", epoch))
			e.finish(Failed, fmt.Sprintf(
				"NumericNaN: non-finite loss at epoch %d", epoch))
			return e.state.Snapshot(0)
		}

		metric := Metric{
			Epoch:     epoch,
			Loss:      avgLoss,
			Timestamp: time.Now().UTC(),
		}
		if e.cfg.Dataset.Task == dataset.Classification {
			if acc, ok := e.testAccuracy(); ok {
				metric.Accuracy = &acc
			}
		}

		e.appendMetric(metric)
		if e.cfg.OnEpoch != nil {
			e.cfg.OnEpoch(metric, time.Since(begin))
		}

		// A diverged epoch still records its metric so the failure
		// is visible in the session history.
		if avgLoss > divergenceThreshold {
			e.log.Warn("loss diverged", zap.Int("epoch", epoch),
				zap.Float64("loss", avgLoss))
			e.finish(Failed, fmt.Sprintf(
				"Diverged: loss %.4g exceeded %.0g at epoch %d",
				avgLoss, float64(divergenceThreshold), epoch))
			return e.state.Snapshot(0)
		}

		if !e.checkpoint(ctl) {
			e.finish(Stopped, "")
			e.log.Info("training stopped", zap.Int("epoch", epoch))
			return e.state.Snapshot(0)
		}
	}

	e.finish(Completed, "")
	e.log.Info("training completed")
	return e.state.Snapshot(0)
}

// trainEpoch runs one shuffled pass over the training slice and
// returns the average batch loss.
func (e *Engine) trainEpoch(rng *rand.Rand) (float64, error) {
	split := e.cfg.Split
	n := split.NumTrain()
	if n == 0 {
		return 0, fmt.Errorf("trainEpoch: empty training split")
	}

	_, features := split.XTrain.Dims()
	batchSize := intutils.Min(e.cfg.BatchSize, n)
	perm := rng.Perm(n)

	var total float64
	batches := 0
	for start := 0; start < n; start += batchSize {
		end := intutils.Min(start+batchSize, n)
		rows := end - start

		x := mat.NewDense(rows, features, nil)
		y := make([]float64, rows)
		for i, idx := range perm[start:end] {
			x.SetRow(i, split.XTrain.RawRowView(idx))
			y[i] = split.YTrain[idx]
		}

		out := e.cfg.Network.Fwd(x, true)
		loss, grad := e.cfg.Network.Loss().Eval(out, y)
		total += loss
		batches++

		// A poisoned batch poisons the epoch average; skip the
		// remaining batches rather than stepping on broken
		// gradients.
		if !floatutils.Finite(loss) {
			break
		}

		e.cfg.Network.Bwd(grad)
		if err := e.cfg.Solver.Step(e.cfg.Network.Model()); err != nil {
			return 0, fmt.Errorf("trainEpoch: %w", err)
		}
	}

	return total / float64(batches), nil
}

// testAccuracy computes top-1 accuracy over the held-out test slice.
func (e *Engine) testAccuracy() (float64, bool) {
	split := e.cfg.Split
	if split.NumTest() == 0 {
		return 0, false
	}

	out := e.cfg.Network.Fwd(split.XTest, false)
	return network.Accuracy(out, split.YTest), true
}

// checkpoint honors pause and stop requests at an epoch boundary. It
// returns false when the session must stop.
func (e *Engine) checkpoint(ctl *Control) bool {
	if ctl.StopRequested() {
		return false
	}

	if ctl.PauseRequested() {
		e.setStatus(Paused)
		e.log.Info("training paused")
		if !ctl.awaitResume() {
			return false
		}
		e.setStatus(Running)
		e.log.Info("training resumed")
	}
	return true
}

// setStatus updates the live status and writes it through the
// recorder.
func (e *Engine) setStatus(status Status) {
	e.state.setStatus(status)
	e.recordStatus()
}

// finish moves the session to a terminal status and writes it
// through the recorder.
func (e *Engine) finish(status Status, errMsg string) {
	e.state.finish(status, errMsg)
	e.recordStatus()
}

func (e *Engine) recordStatus() {
	if e.cfg.Recorder == nil {
		return
	}
	if err := e.cfg.Recorder.UpdateStatus(e.state.Snapshot(0)); err != nil {
		e.log.Warn("status write failed", zap.Error(err))
	}
}

func (e *Engine) appendMetric(m Metric) {
	e.state.appendMetric(m)
	if e.cfg.Recorder == nil {
		return
	}
	if err := e.cfg.Recorder.AppendMetric(e.cfg.SessionID, m); err != nil {
		e.log.Warn("metric write failed", zap.Error(err))
	}
}

// Prediction carries the result of a single forward pass through a
// trained network.
type Prediction struct {
	Task          dataset.Task
	Class         int
	Probabilities []float64
	Confidence    float64
	Value         float64
}

// Predict runs one sample through the trained network. It is
// available only once the session has completed and is safe to call
// concurrently with other Predict calls.
func (e *Engine) Predict(inputs []float64) (Prediction, error) {
	if e.state.Status() != Completed {
		return Prediction{}, ErrNotCompleted
	}
	if len(inputs) != e.cfg.Network.Features() {
		return Prediction{}, fmt.Errorf("predict: expected %d features, "+
			"got %d", e.cfg.Network.Features(), len(inputs))
	}

	features := inputs
	if e.cfg.Split.Scaler != nil {
		scaled, err := e.cfg.Split.Scaler.Transform(inputs)
		if err != nil {
			return Prediction{}, fmt.Errorf("predict: %w", err)
		}
		features = scaled
	}

	out := e.cfg.Network.Fwd(
		mat.NewDense(1, len(features), features), false)
	row := out.RawRowView(0)

	if e.cfg.Dataset.Task == dataset.Regression {
		return Prediction{Task: dataset.Regression, Value: row[0]}, nil
	}

	probs := network.Softmax(row)
	class := floatutils.ArgMax(probs)
	return Prediction{
		Task:          dataset.Classification,
		Class:         class,
		Probabilities: probs,
		Confidence:    probs[class],
	}, nil
}
