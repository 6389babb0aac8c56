package network

import "gonum.org/v1/gonum/mat"

// Param is one trainable tensor of a layer together with the
// gradient of the loss with respect to it. Value and Grad expose
// flat backing slices that solvers update in place.
type Param struct {
	name  string
	value []float64
	grad  []float64
}

// newParam wraps value, which the parameter shares with its layer,
// and allocates a matching gradient.
func newParam(name string, value []float64) *Param {
	return &Param{
		name:  name,
		value: value,
		grad:  make([]float64, len(value)),
	}
}

// Name identifies the parameter within its network.
func (p *Param) Name() string {
	return p.name
}

// Value returns the flat parameter values.
func (p *Param) Value() []float64 {
	return p.value
}

// Grad returns the flat parameter gradients.
func (p *Param) Grad() []float64 {
	return p.grad
}

// zero clears a gradient accumulator.
func zero(values []float64) {
	for i := range values {
		values[i] = 0
	}
}

// Layer is one differentiable stage of a compiled network.
//
// Fwd consumes a batch of row-major samples and returns the layer's
// outputs, one row per input row. When training is true the layer
// may cache activations for the following Bwd and apply stochastic
// regularization. When training is false Fwd must not mutate the
// layer, so inference can run concurrently.
//
// Bwd consumes the gradient of the loss with respect to the layer's
// outputs, fills in the parameter gradients, and returns the
// gradient with respect to its inputs. Bwd may only follow a
// training-mode Fwd of the same batch.
type Layer interface {
	Fwd(x *mat.Dense, training bool) *mat.Dense
	Bwd(grad *mat.Dense) *mat.Dense
	Params() []*Param
}
