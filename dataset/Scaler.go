package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gotrain/utils/matutils"
)

// Scaler standardizes feature columns to zero mean and unit variance,
// remembering the fitted statistics so that later inputs, such as
// prediction requests, can be transformed exactly like the training
// features were.
type Scaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler fits a Scaler to the columns of x.
func FitScaler(x *mat.Dense) *Scaler {
	means, stds := matutils.ColStats(x)
	return &Scaler{Mean: means, Std: stds}
}

// Apply standardizes the columns of x in place using the fitted
// statistics.
func (s *Scaler) Apply(x *mat.Dense) {
	matutils.StandardizeCols(x, s.Mean, s.Std)
}

// Transform standardizes a single sample, returning a new slice.
func (s *Scaler) Transform(inputs []float64) ([]float64, error) {
	if len(inputs) != len(s.Mean) {
		return nil, fmt.Errorf("transform: expected %d features, "+
			"got %d", len(s.Mean), len(inputs))
	}

	out := make([]float64, len(inputs))
	for j, v := range inputs {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}
