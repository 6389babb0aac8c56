package train

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/samuelfneumann/gotrain/arch"
	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/network"
	"github.com/samuelfneumann/gotrain/solver"
)

// captureRecorder keeps every write-through call for inspection.
type captureRecorder struct {
	mu       sync.Mutex
	metrics  []Metric
	statuses []Status
	fail     bool
}

func (r *captureRecorder) AppendMetric(_ string, m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail {
		return errors.New("recorder down")
	}
	r.metrics = append(r.metrics, m)
	return nil
}

func (r *captureRecorder) UpdateStatus(s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail {
		return errors.New("recorder down")
	}
	r.statuses = append(r.statuses, s.Status)
	return nil
}

func (r *captureRecorder) snapshot() ([]Metric, []Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Metric(nil), r.metrics...),
		append([]Status(nil), r.statuses...)
}

// xorConfig assembles an engine config over the synthetic XOR
// dataset, small enough to train in milliseconds.
func xorConfig(t *testing.T, sessionID string, epochs int, lr float64,
	optimizer string) Config {
	t.Helper()

	provider := dataset.NewSyntheticXOR(61)
	split, err := provider.Load(200)
	require.NoError(t, err)

	ds := provider.Spec()
	layers, err := arch.Validate([]arch.Layer{
		{Kind: arch.Input, Position: 0},
		{Kind: arch.Hidden, Position: 1, Neurons: 8,
			Activation: "tanh"},
		{Kind: arch.Output, Position: 2, Neurons: 2,
			Activation: "softmax"},
	}, ds)
	require.NoError(t, err)

	net, err := network.Compile(layers, ds, Seed(sessionID))
	require.NoError(t, err)

	sol, err := solver.New(optimizer, lr)
	require.NoError(t, err)

	return Config{
		SessionID: sessionID,
		ModelID:   "xor-model",
		Dataset:   ds,
		Split:     split,
		Network:   net,
		Solver:    sol,
		Epochs:    epochs,
		BatchSize: 32,
		Logger:    zap.NewNop(),
	}
}

func TestEngineRunCompletes(t *testing.T) {
	e := NewEngine(xorConfig(t, "session-complete", 3, 0.01, "adam"))

	final := e.Run(NewControl())

	require.Equal(t, Completed, final.Status)
	require.Equal(t, 3, final.CurrentEpoch)
	require.NotNil(t, final.EndTime)
	require.Empty(t, final.ErrorMessage)
	require.InDelta(t, pollHintTerminal, final.PollHint, 1e-12)

	require.Len(t, final.Metrics, 3)
	for i, m := range final.Metrics {
		require.Equal(t, i+1, m.Epoch)
		require.False(t, m.Timestamp.IsZero())
		require.NotNil(t, m.Accuracy)
		require.GreaterOrEqual(t, *m.Accuracy, 0.0)
		require.LessOrEqual(t, *m.Accuracy, 1.0)
	}
}

func TestEngineLearnsXOR(t *testing.T) {
	e := NewEngine(xorConfig(t, "session-learn", 80, 0.01, "adam"))

	final := e.Run(NewControl())

	require.Equal(t, Completed, final.Status)
	first := final.Metrics[0]
	last := final.Metrics[len(final.Metrics)-1]
	require.Less(t, last.Loss, first.Loss)
	require.GreaterOrEqual(t, *last.Accuracy, 0.8)
}

func TestEngineStopBeforeRun(t *testing.T) {
	e := NewEngine(xorConfig(t, "session-prestop", 5, 0.01, "adam"))
	ctl := NewControl()
	ctl.RequestStop()

	final := e.Run(ctl)

	require.Equal(t, Stopped, final.Status)
	require.Empty(t, final.Metrics)
	require.NotNil(t, final.EndTime)
}

func TestEngineStopAtEpochBoundary(t *testing.T) {
	cfg := xorConfig(t, "session-stop", 10, 0.01, "adam")
	ctl := NewControl()
	cfg.OnEpoch = func(m Metric, _ time.Duration) {
		if m.Epoch == 2 {
			ctl.RequestStop()
		}
	}

	final := NewEngine(cfg).Run(ctl)

	require.Equal(t, Stopped, final.Status)
	require.Len(t, final.Metrics, 2)
	require.Equal(t, 2, final.CurrentEpoch)
}

func TestEnginePauseAndResume(t *testing.T) {
	e := NewEngine(xorConfig(t, "session-pause", 4, 0.01, "adam"))
	ctl := NewControl()
	ctl.RequestPause()

	done := make(chan Session, 1)
	go func() { done <- e.Run(ctl) }()

	require.Eventually(t, func() bool {
		return e.State().Status() == Paused
	}, 5*time.Second, 5*time.Millisecond)

	// Paused at the first epoch boundary: exactly one epoch is
	// recorded, and nothing advances while paused.
	snap := e.State().Snapshot(0)
	require.Equal(t, 1, snap.CurrentEpoch)
	require.Len(t, snap.Metrics, 1)

	time.Sleep(50 * time.Millisecond)
	later := e.State().Snapshot(0)
	require.Equal(t, 1, later.CurrentEpoch)
	require.Len(t, later.Metrics, 1)

	ctl.RequestResume()
	select {
	case final := <-done:
		require.Equal(t, Completed, final.Status)
		require.Len(t, final.Metrics, 4)
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish after resume")
	}
}

func TestEngineStopWhilePaused(t *testing.T) {
	e := NewEngine(xorConfig(t, "session-pausestop", 6, 0.01, "adam"))
	ctl := NewControl()
	ctl.RequestPause()

	done := make(chan Session, 1)
	go func() { done <- e.Run(ctl) }()

	require.Eventually(t, func() bool {
		return e.State().Status() == Paused
	}, 5*time.Second, 5*time.Millisecond)

	ctl.RequestStop()
	select {
	case final := <-done:
		require.Equal(t, Stopped, final.Status)
		require.Len(t, final.Metrics, 1)
	case <-time.After(10 * time.Second):
		t.Fatal("stop did not end the paused session")
	}
}

func TestEngineDivergenceFails(t *testing.T) {
	e := NewEngine(xorConfig(t, "session-diverge", 10, 1e9, "sgd"))

	final := e.Run(NewControl())

	require.Equal(t, Failed, final.Status)
	require.NotNil(t, final.EndTime)
	require.True(t,
		strings.Contains(final.ErrorMessage, "Diverged") ||
			strings.Contains(final.ErrorMessage, "NumericNaN"),
		"unexpected error message %q", final.ErrorMessage)
	if strings.Contains(final.ErrorMessage, "Diverged") {
		require.NotEmpty(t, final.Metrics)
	}
}

func TestEngineRegressionMetricsHaveNilAccuracy(t *testing.T) {
	provider := dataset.NewCaliforniaHousing(43)
	split, err := provider.Load(400)
	require.NoError(t, err)

	ds := provider.Spec()
	layers, err := arch.Validate([]arch.Layer{
		{Kind: arch.Input, Position: 0},
		{Kind: arch.Hidden, Position: 1, Neurons: 16,
			Activation: "relu"},
		{Kind: arch.Output, Position: 2},
	}, ds)
	require.NoError(t, err)

	net, err := network.Compile(layers, ds, Seed("session-reg"))
	require.NoError(t, err)

	sol, err := solver.New("adam", 0.001)
	require.NoError(t, err)

	e := NewEngine(Config{
		SessionID: "session-reg",
		ModelID:   "housing-model",
		Dataset:   ds,
		Split:     split,
		Network:   net,
		Solver:    sol,
		Epochs:    2,
		BatchSize: 64,
		Logger:    zap.NewNop(),
	})

	final := e.Run(NewControl())

	require.Equal(t, Completed, final.Status)
	require.Len(t, final.Metrics, 2)
	for _, m := range final.Metrics {
		require.Nil(t, m.Accuracy)
	}

	pred, err := e.Predict(make([]float64, ds.NumFeatures))
	require.NoError(t, err)
	require.Equal(t, dataset.Regression, pred.Task)
	require.Nil(t, pred.Probabilities)
	require.False(t, pred.Value != pred.Value, "prediction is NaN")
}

func TestEngineRecorderObservesLifecycle(t *testing.T) {
	rec := &captureRecorder{}
	cfg := xorConfig(t, "session-recorded", 2, 0.01, "adam")
	cfg.Recorder = rec

	final := NewEngine(cfg).Run(NewControl())
	require.Equal(t, Completed, final.Status)

	metrics, statuses := rec.snapshot()
	require.Len(t, metrics, 2)
	require.NotEmpty(t, statuses)
	require.Equal(t, Running, statuses[0])
	require.Equal(t, Completed, statuses[len(statuses)-1])
}

func TestEngineRecorderFailureDoesNotFailTraining(t *testing.T) {
	cfg := xorConfig(t, "session-badrecorder", 2, 0.01, "adam")
	cfg.Recorder = &captureRecorder{fail: true}

	final := NewEngine(cfg).Run(NewControl())

	require.Equal(t, Completed, final.Status)
	require.Len(t, final.Metrics, 2)
}

func TestEngineDeterministicBySessionID(t *testing.T) {
	run := func() Session {
		cfg := xorConfig(t, "session-fixed", 3, 0.01, "adam")
		return NewEngine(cfg).Run(NewControl())
	}

	a, b := run(), run()
	require.Len(t, b.Metrics, len(a.Metrics))
	for i := range a.Metrics {
		require.Equal(t, a.Metrics[i].Loss, b.Metrics[i].Loss, i)
	}
}

func TestEnginePredict(t *testing.T) {
	e := NewEngine(xorConfig(t, "session-predict", 30, 0.01, "adam"))

	_, err := e.Predict([]float64{0.5, 0.5})
	require.ErrorIs(t, err, ErrNotCompleted)

	final := e.Run(NewControl())
	require.Equal(t, Completed, final.Status)

	pred, err := e.Predict([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Equal(t, dataset.Classification, pred.Task)
	require.Contains(t, []int{0, 1}, pred.Class)
	require.Len(t, pred.Probabilities, 2)
	require.InDelta(t, 1,
		pred.Probabilities[0]+pred.Probabilities[1], 1e-9)
	require.InDelta(t, pred.Probabilities[pred.Class],
		pred.Confidence, 1e-12)

	// Equal inputs yield equal outputs.
	again, err := e.Predict([]float64{0.5, 0.5})
	require.NoError(t, err)
	require.Equal(t, pred, again)

	_, err = e.Predict([]float64{1, 2, 3})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotCompleted)
}

func TestEnginePredictConcurrent(t *testing.T) {
	e := NewEngine(xorConfig(t, "session-parallel", 10, 0.01, "adam"))
	final := e.Run(NewControl())
	require.Equal(t, Completed, final.Status)

	const callers = 8
	preds := make([]Prediction, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			preds[i], errs[i] = e.Predict([]float64{0.25, -0.75})
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, preds[0], preds[i])
	}
}
