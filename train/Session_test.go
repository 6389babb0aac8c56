package train

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/gotrain/dataset"
)

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{Completed, Stopped, Failed} {
		require.True(t, s.Terminal(), s)
	}
	for _, s := range []Status{Pending, Running, Paused} {
		require.False(t, s.Terminal(), s)
	}
}

func TestSeedStable(t *testing.T) {
	require.Equal(t, Seed("abc"), Seed("abc"))
	require.NotEqual(t, Seed("abc"), Seed("abd"))
}

func TestStateSnapshotFiltersMetrics(t *testing.T) {
	state := NewState("s1", "m1", "iris", 10)
	for epoch := 1; epoch <= 3; epoch++ {
		state.appendMetric(Metric{
			Epoch:     epoch,
			Loss:      float64(epoch),
			Timestamp: time.Now().UTC(),
		})
	}
	state.beginEpoch(3)

	full := state.Snapshot(0)
	require.Equal(t, "s1", full.ID)
	require.Equal(t, Pending, full.Status)
	require.Equal(t, 3, full.CurrentEpoch)
	require.Len(t, full.Metrics, 3)
	require.InDelta(t, pollHintActive, full.PollHint, 1e-12)

	tail := state.Snapshot(1)
	require.Len(t, tail.Metrics, 2)
	require.Equal(t, 2, tail.Metrics[0].Epoch)
	require.Equal(t, 3, tail.Metrics[1].Epoch)

	require.Empty(t, state.Snapshot(3).Metrics)
}

func TestStateSnapshotIsACopy(t *testing.T) {
	state := NewState("s1", "m1", "iris", 5)
	state.appendMetric(Metric{Epoch: 1, Loss: 0.5})

	snap := state.Snapshot(0)
	snap.Metrics[0].Loss = 99
	snap.Status = Failed

	fresh := state.Snapshot(0)
	require.InDelta(t, 0.5, fresh.Metrics[0].Loss, 1e-12)
	require.Equal(t, Pending, fresh.Status)
}

func TestStateFinishStampsEndTime(t *testing.T) {
	state := NewState("s1", "m1", "iris", 5)
	require.Nil(t, state.Snapshot(0).EndTime)

	state.finish(Failed, "NumericNaN: non-finite loss at epoch 2")

	snap := state.Snapshot(0)
	require.Equal(t, Failed, snap.Status)
	require.NotNil(t, snap.EndTime)
	require.Contains(t, snap.ErrorMessage, "NumericNaN")
	require.InDelta(t, pollHintTerminal, snap.PollHint, 1e-12)
}

func TestControlSignals(t *testing.T) {
	ctl := NewControl()
	require.False(t, ctl.StopRequested())
	require.False(t, ctl.PauseRequested())

	ctl.RequestPause()
	require.True(t, ctl.PauseRequested())

	ctl.RequestResume()
	require.False(t, ctl.PauseRequested())

	ctl.RequestStop()
	require.True(t, ctl.StopRequested())
}

func TestControlAwaitResumeReturnsWhenNotPaused(t *testing.T) {
	ctl := NewControl()
	require.True(t, ctl.awaitResume())
}

func TestControlStopWakesPausedWaiter(t *testing.T) {
	ctl := NewControl()
	ctl.RequestPause()

	done := make(chan bool, 1)
	go func() {
		done <- ctl.awaitResume()
	}()

	// The waiter must be blocked until a signal arrives.
	select {
	case <-done:
		t.Fatal("awaitResume returned while paused")
	case <-time.After(50 * time.Millisecond):
	}

	ctl.RequestStop()
	select {
	case keepGoing := <-done:
		require.False(t, keepGoing)
	case <-time.After(time.Second):
		t.Fatal("stop did not wake the paused waiter")
	}
}

func TestControlResumeWakesPausedWaiter(t *testing.T) {
	ctl := NewControl()
	ctl.RequestPause()

	done := make(chan bool, 1)
	go func() {
		done <- ctl.awaitResume()
	}()

	ctl.RequestResume()
	select {
	case keepGoing := <-done:
		require.True(t, keepGoing)
	case <-time.After(time.Second):
		t.Fatal("resume did not wake the paused waiter")
	}
}

func TestOptionsResolveDefaults(t *testing.T) {
	rec := dataset.Hyperparameters{
		Epochs:       50,
		LearningRate: 0.01,
		BatchSize:    32,
		Optimizer:    "adam",
	}

	got, err := Options{}.Resolve(rec)
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

func TestOptionsResolveOverrides(t *testing.T) {
	rec := dataset.Hyperparameters{
		Epochs:       50,
		LearningRate: 0.01,
		BatchSize:    32,
		Optimizer:    "adam",
	}

	got, err := Options{
		Epochs:       5,
		LearningRate: 0.1,
		Optimizer:    "SGD",
	}.Resolve(rec)
	require.NoError(t, err)
	require.Equal(t, 5, got.Epochs)
	require.InDelta(t, 0.1, got.LearningRate, 1e-12)
	require.Equal(t, 32, got.BatchSize)
	require.Equal(t, "sgd", got.Optimizer)
}

func TestOptionsResolveRejections(t *testing.T) {
	rec := dataset.Hyperparameters{
		Epochs:       50,
		LearningRate: 0.01,
		BatchSize:    32,
		Optimizer:    "adam",
	}

	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"negative epochs", Options{Epochs: -1}, "epochs"},
		{"negative learning rate", Options{LearningRate: -0.5},
			"learning_rate"},
		{"negative batch size", Options{BatchSize: -4}, "batch_size"},
		{"unknown optimizer", Options{Optimizer: "lbfgs"}, "optimizer"},
		{"negative max samples", Options{MaxSamples: -10},
			"max_samples"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Resolve(rec)

			var hpErr *HyperparameterError
			require.ErrorAs(t, err, &hpErr)
			require.Equal(t, tt.field, hpErr.Field)
		})
	}
}
