package network

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gotrain/utils/floatutils"
)

// Loss evaluates a training criterion over a batch of network
// outputs, returning the mean loss and its gradient with respect to
// the outputs.
type Loss interface {
	Eval(outputs *mat.Dense, targets []float64) (float64, *mat.Dense)

	// Name returns the criterion's wire name.
	Name() string
}

// crossEntropy is softmax cross-entropy over logits. The softmax and
// the loss are fused, which keeps the loss finite for large logits
// and reduces the backward pass to a subtraction.
type crossEntropy struct{}

// Name returns the criterion's wire name.
func (crossEntropy) Name() string {
	return "cross_entropy"
}

// Eval expects one logit column per class and integer class targets.
func (crossEntropy) Eval(outputs *mat.Dense,
	targets []float64) (float64, *mat.Dense) {
	rows, _ := outputs.Dims()
	scale := 1 / float64(rows)

	grad := mat.NewDense(rows, outputs.RawMatrix().Cols, nil)
	var total float64
	for i := 0; i < rows; i++ {
		logits := outputs.RawRowView(i)
		gRow := grad.RawRowView(i)

		max := floatutils.Max(logits...)
		var sumExp float64
		for j, v := range logits {
			e := math.Exp(v - max)
			gRow[j] = e
			sumExp += e
		}
		floats.Scale(1/sumExp, gRow)

		target := int(targets[i])
		total += max + math.Log(sumExp) - logits[target]
		gRow[target]--
		floats.Scale(scale, gRow)
	}
	return total * scale, grad
}

// meanSquared is the mean squared error over a single output column.
type meanSquared struct{}

// Name returns the criterion's wire name.
func (meanSquared) Name() string {
	return "mean_squared_error"
}

// Eval expects a single output column and continuous targets.
func (meanSquared) Eval(outputs *mat.Dense,
	targets []float64) (float64, *mat.Dense) {
	rows, cols := outputs.Dims()
	scale := 1 / float64(rows)

	grad := mat.NewDense(rows, cols, nil)
	var total float64
	for i := 0; i < rows; i++ {
		diff := outputs.At(i, 0) - targets[i]
		total += diff * diff
		grad.Set(i, 0, 2*diff*scale)
	}
	return total * scale, grad
}

// softmaxRow writes the numerically stable softmax of src into dst.
func softmaxRow(dst, src []float64) {
	max := floatutils.Max(src...)
	var sum float64
	for i, v := range src {
		e := math.Exp(v - max)
		dst[i] = e
		sum += e
	}
	floats.Scale(1/sum, dst)
}

// Softmax returns the softmax distribution over one row of logits.
func Softmax(logits []float64) []float64 {
	dst := make([]float64, len(logits))
	softmaxRow(dst, logits)
	return dst
}

// Accuracy returns the fraction of output rows whose highest logit
// matches the target class, or 0 for an empty batch.
func Accuracy(outputs *mat.Dense, targets []float64) float64 {
	rows, _ := outputs.Dims()
	if rows == 0 {
		return 0
	}

	correct := 0
	for i := 0; i < rows; i++ {
		if floatutils.ArgMax(outputs.RawRowView(i)) == int(targets[i]) {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}
