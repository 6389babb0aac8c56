package network

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Dropout implements inverted dropout: during training each value is
// zeroed with probability rate and survivors are scaled by
// 1/(1-rate). Inference passes inputs through untouched.
type Dropout struct {
	rate float64
	rng  *rand.Rand

	mask *mat.Dense // cached during training
}

// newDropout returns a new Dropout layer drawing its masks from src.
func newDropout(rate float64, src rand.Source) *Dropout {
	return &Dropout{
		rate: rate,
		rng:  rand.New(src),
	}
}

// Fwd masks x during training and is the identity otherwise.
func (d *Dropout) Fwd(x *mat.Dense, training bool) *mat.Dense {
	if !training || d.rate == 0 {
		d.mask = nil
		return x
	}

	rows, cols := x.Dims()
	keep := 1 / (1 - d.rate)

	mask := mat.NewDense(rows, cols, nil)
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		inRow := x.RawRowView(i)
		maskRow := mask.RawRowView(i)
		outRow := out.RawRowView(i)
		for j := range maskRow {
			if d.rng.Float64() >= d.rate {
				maskRow[j] = keep
				outRow[j] = inRow[j] * keep
			}
		}
	}

	d.mask = mask
	return out
}

// Bwd applies the cached mask to grad.
func (d *Dropout) Bwd(grad *mat.Dense) *mat.Dense {
	if d.mask == nil {
		return grad
	}

	rows, cols := grad.Dims()
	dx := mat.NewDense(rows, cols, nil)
	dx.MulElem(grad, d.mask)
	return dx
}

// Params returns nil: dropout has nothing to train.
func (d *Dropout) Params() []*Param {
	return nil
}
