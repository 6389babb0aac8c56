package network

import "gonum.org/v1/gonum/mat"

// Flatten marks the transition from a spatial to a flat layout.
// Samples are stored flattened in either mode, so both passes are
// the identity.
type Flatten struct{}

// newFlatten returns a new Flatten layer.
func newFlatten() *Flatten {
	return &Flatten{}
}

// Fwd returns x unchanged.
func (f *Flatten) Fwd(x *mat.Dense, _ bool) *mat.Dense {
	return x
}

// Bwd returns grad unchanged.
func (f *Flatten) Bwd(grad *mat.Dense) *mat.Dense {
	return grad
}

// Params returns nil: flatten has nothing to train.
func (f *Flatten) Params() []*Param {
	return nil
}
