// Package dataset implements the curated datasets that network
// architectures are compiled against and trained on.
//
// Each dataset is exposed through a Provider that can describe itself
// with a Spec and materialize a deterministic train/test Split on
// demand. Providers are stateless: Load may be called concurrently
// and always yields the same samples for the same arguments.
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TestFraction is the portion of samples held out of training and
// used for accuracy evaluation.
const TestFraction = 0.2

// Task describes what kind of learning problem a dataset poses.
type Task string

const (
	// Classification datasets label each sample with one of
	// NumClasses integer classes.
	Classification Task = "classification"

	// Regression datasets attach a single continuous target to each
	// sample.
	Regression Task = "regression"
)

// Hyperparameters describes a complete training configuration for a
// dataset.
type Hyperparameters struct {
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learning_rate"`
	BatchSize    int     `json:"batch_size"`
	Optimizer    string  `json:"optimizer"`
}

// Spec describes a dataset without materializing its samples.
//
// InputShape is {height, width, channels} for image datasets and
// {features} for tabular ones. NumFeatures is always the flattened
// sample width.
type Spec struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Task        Task            `json:"task_type"`
	Description string          `json:"description"`
	InputShape  []int           `json:"input_shape"`
	NumFeatures int             `json:"num_features"`
	NumClasses  int             `json:"num_classes,omitempty"`
	NumSamples  int             `json:"num_samples"`
	Recommended Hyperparameters `json:"hyperparameters"`
}

// Image returns whether samples carry a spatial height × width ×
// channels shape.
func (s Spec) Image() bool {
	return len(s.InputShape) == 3
}

// Provider yields one curated dataset.
type Provider interface {
	// Spec describes the dataset.
	Spec() Spec

	// Load materializes the dataset as a train/test split. If
	// maxSamples > 0, the sample set is truncated to at most
	// maxSamples rows before the split, so the training and test
	// portions shrink together. Load is deterministic: equal
	// arguments yield equal splits.
	Load(maxSamples int) (*Split, error)
}

// Split holds the materialized samples of a dataset, already divided
// into training and test portions.
//
// Feature matrices store one sample per row. Image samples are
// flattened channel-major, so pixel (c, y, x) of an H×W×C sample
// lives at column c*H*W + y*W + x. Targets are class indices for
// classification and continuous values for regression.
type Split struct {
	XTrain *mat.Dense
	YTrain []float64
	XTest  *mat.Dense
	YTest  []float64

	// Scaler holds the standardization fitted on the training
	// portion, or nil for datasets whose features are not
	// standardized.
	Scaler *Scaler
}

// NumTrain returns the number of training samples.
func (s *Split) NumTrain() int {
	r, _ := s.XTrain.Dims()
	return r
}

// NumTest returns the number of held-out test samples.
func (s *Split) NumTest() int {
	if s.XTest == nil {
		return 0
	}
	r, _ := s.XTest.Dims()
	return r
}

// Preview materializes the first n training samples of a dataset:
// feature rows exactly as the network would see them, standardization
// included, alongside their targets.
func Preview(p Provider, n int) ([][]float64, []float64, error) {
	split, err := p.Load(0)
	if err != nil {
		return nil, nil, fmt.Errorf("preview: %w", err)
	}
	if max := split.NumTrain(); n > max {
		n = max
	}

	features := make([][]float64, n)
	for i := 0; i < n; i++ {
		features[i] = append([]float64(nil), split.XTrain.RawRowView(i)...)
	}
	labels := append([]float64(nil), split.YTrain[:n]...)
	return features, labels, nil
}

// truncate caps a sample set at maxSamples rows. A maxSamples of 0 or
// less leaves the set unchanged.
func truncate(x *mat.Dense, y []float64, maxSamples int) (*mat.Dense, []float64) {
	n, c := x.Dims()
	if maxSamples <= 0 || maxSamples >= n {
		return x, y
	}
	return x.Slice(0, maxSamples, 0, c).(*mat.Dense), y[:maxSamples]
}

// newSplit partitions samples into train and test portions and, when
// standardize is set, fits a Scaler on the training portion and
// applies it to both. Rows are assumed to be pre-shuffled, so the
// split simply takes the trailing TestFraction of rows as the test
// portion.
func newSplit(x *mat.Dense, y []float64, standardize bool) (*Split, error) {
	n, c := x.Dims()
	if n < 1 {
		return nil, fmt.Errorf("newSplit: no samples to split")
	}
	if len(y) != n {
		return nil, fmt.Errorf("newSplit: %d samples but %d targets",
			n, len(y))
	}

	numTest := int(float64(n) * TestFraction)
	numTrain := n - numTest

	split := &Split{
		XTrain: mat.DenseCopyOf(x.Slice(0, numTrain, 0, c)),
		YTrain: append([]float64(nil), y[:numTrain]...),
	}
	if numTest > 0 {
		split.XTest = mat.DenseCopyOf(x.Slice(numTrain, n, 0, c))
		split.YTest = append([]float64(nil), y[numTrain:]...)
	}

	if standardize {
		split.Scaler = FitScaler(split.XTrain)
		split.Scaler.Apply(split.XTrain)
		if split.XTest != nil {
			split.Scaler.Apply(split.XTest)
		}
	}
	return split, nil
}

// shuffled returns copies of x and y with rows reordered by perm.
func shuffled(x *mat.Dense, y []float64, perm []int) (*mat.Dense, []float64) {
	n, c := x.Dims()
	outX := mat.NewDense(n, c, nil)
	outY := make([]float64, n)
	for to, from := range perm {
		outX.SetRow(to, x.RawRowView(from))
		outY[to] = y[from]
	}
	return outX, outY
}
