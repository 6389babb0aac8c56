package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCrossEntropySingleRow(t *testing.T) {
	// Uniform logits over two classes: loss is ln 2 and the gradient
	// is softmax minus the one-hot target.
	logits := mat.NewDense(1, 2, []float64{0, 0})

	loss, grad := crossEntropy{}.Eval(logits, []float64{0})

	require.InDelta(t, math.Log(2), loss, 1e-12)
	require.InDelta(t, -0.5, grad.At(0, 0), 1e-12)
	require.InDelta(t, 0.5, grad.At(0, 1), 1e-12)
}

func TestCrossEntropyBatchAverages(t *testing.T) {
	logits := mat.NewDense(2, 2, []float64{
		2, 0,
		0, 1,
	})
	targets := []float64{0, 1}

	loss, grad := crossEntropy{}.Eval(logits, targets)

	// Per-row losses follow -log softmax(target).
	want := (math.Log(1+math.Exp(-2)) + math.Log(1+math.Exp(-1))) / 2
	require.InDelta(t, want, loss, 1e-12)

	p0 := 1 / (1 + math.Exp(-2)) // P(class 0) in row 0
	require.InDelta(t, (p0-1)/2, grad.At(0, 0), 1e-12)
	require.InDelta(t, (1-p0)/2, grad.At(0, 1), 1e-12)

	p1 := 1 / (1 + math.Exp(-1)) // P(class 1) in row 1
	require.InDelta(t, (1-p1)/2, grad.At(1, 0), 1e-12)
	require.InDelta(t, (p1-1)/2, grad.At(1, 1), 1e-12)
}

func TestCrossEntropyStableForLargeLogits(t *testing.T) {
	logits := mat.NewDense(1, 3, []float64{1000, 900, 800})

	loss, grad := crossEntropy{}.Eval(logits, []float64{0})

	require.False(t, math.IsNaN(loss))
	require.False(t, math.IsInf(loss, 0))
	require.InDelta(t, 0, loss, 1e-12)
	require.InDelta(t, 0, grad.At(0, 0), 1e-12)
}

func TestMeanSquared(t *testing.T) {
	outputs := mat.NewDense(2, 1, []float64{1, 3})
	targets := []float64{2, 5}

	loss, grad := meanSquared{}.Eval(outputs, targets)

	require.InDelta(t, (1+4)/2.0, loss, 1e-12)
	require.InDelta(t, -1, grad.At(0, 0), 1e-12)
	require.InDelta(t, -2, grad.At(1, 0), 1e-12)
}

func TestLossNames(t *testing.T) {
	require.Equal(t, "cross_entropy", crossEntropy{}.Name())
	require.Equal(t, "mean_squared_error", meanSquared{}.Name())
}

func TestSoftmaxHelper(t *testing.T) {
	probs := Softmax([]float64{1, 2, 3})

	require.Len(t, probs, 3)
	var sum float64
	for _, p := range probs {
		sum += p
	}
	require.InDelta(t, 1, sum, 1e-12)
	require.True(t, probs[2] > probs[1] && probs[1] > probs[0])
}

func TestAccuracy(t *testing.T) {
	outputs := mat.NewDense(4, 3, []float64{
		5, 1, 0, // predicts 0, target 0
		0, 2, 1, // predicts 1, target 2
		0, 1, 9, // predicts 2, target 2
		3, 2, 1, // predicts 0, target 1
	})
	targets := []float64{0, 2, 2, 1}

	require.InDelta(t, 0.5, Accuracy(outputs, targets), 1e-12)
	require.InDelta(t, 1.0, Accuracy(outputs, []float64{0, 1, 2, 0}),
		1e-12)
}
