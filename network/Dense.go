package network

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dense implements a fully connected layer with a fused activation.
type Dense struct {
	in, out int
	act     *Activation

	weights *mat.Dense // in × out, backing shared with wParam
	wParam  *Param
	bParam  *Param

	x    *mat.Dense // cached input, training mode only
	pre  *mat.Dense // cached pre-activations
	post *mat.Dense // cached outputs
}

// newDense returns a new Dense layer owning the given flat weights
// and biases.
func newDense(name string, in, out int, act *Activation, weights,
	biases []float64) (*Dense, error) {
	if len(weights) != in*out {
		return nil, fmt.Errorf("newDense: %v: expected %d weights, "+
			"got %d", name, in*out, len(weights))
	}
	if len(biases) != out {
		return nil, fmt.Errorf("newDense: %v: expected %d biases, "+
			"got %d", name, out, len(biases))
	}

	return &Dense{
		in:      in,
		out:     out,
		act:     act,
		weights: mat.NewDense(in, out, weights),
		wParam:  newParam(name+".weights", weights),
		bParam:  newParam(name+".bias", biases),
	}, nil
}

// Fwd computes act(x·W + b) one row per sample.
func (d *Dense) Fwd(x *mat.Dense, training bool) *mat.Dense {
	rows, _ := x.Dims()

	pre := mat.NewDense(rows, d.out, nil)
	pre.Mul(x, d.weights)
	for i := 0; i < rows; i++ {
		floats.Add(pre.RawRowView(i), d.bParam.value)
	}

	post := pre
	if !d.act.IsIdentity() {
		post = mat.NewDense(rows, d.out, nil)
		for i := 0; i < rows; i++ {
			d.act.fwd(post.RawRowView(i), pre.RawRowView(i))
		}
	}

	if training {
		d.x, d.pre, d.post = x, pre, post
	}
	return post
}

// Bwd backpropagates grad through the layer, filling the weight and
// bias gradients.
func (d *Dense) Bwd(grad *mat.Dense) *mat.Dense {
	rows, _ := grad.Dims()

	dz := grad
	if !d.act.IsIdentity() {
		dz = mat.NewDense(rows, d.out, nil)
		for i := 0; i < rows; i++ {
			d.act.bwd(dz.RawRowView(i), grad.RawRowView(i),
				d.pre.RawRowView(i), d.post.RawRowView(i))
		}
	}

	wGrad := mat.NewDense(d.in, d.out, d.wParam.grad)
	wGrad.Mul(d.x.T(), dz)

	zero(d.bParam.grad)
	for i := 0; i < rows; i++ {
		floats.Add(d.bParam.grad, dz.RawRowView(i))
	}

	dx := mat.NewDense(rows, d.in, nil)
	dx.Mul(dz, d.weights.T())
	return dx
}

// Params returns the layer's weights and biases.
func (d *Dense) Params() []*Param {
	return []*Param{d.wParam, d.bParam}
}
