package solver

import (
	"github.com/samuelfneumann/gotrain/utils/floatutils"
)

// SGDConfig describes a configuration of the stochastic gradient
// descent solver.
type SGDConfig struct {
	StepSize float64
	Clip     float64 // <= 0 if no clipping
}

// NewSGD returns a new SGD Solver
func NewSGD(stepSize, clip float64) (*Solver, error) {
	sgd := SGDConfig{
		StepSize: stepSize,
		Clip:     clip,
	}

	return newSolver(SGD, sgd)
}

// Create returns a new SGD Stepper as described by the SGDConfig
func (s SGDConfig) Create() Stepper {
	return &sgd{SGDConfig: s}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (s SGDConfig) ValidType(t Type) bool {
	return t == SGD
}

// sgd implements plain stochastic gradient descent with optional
// gradient clipping.
type sgd struct {
	SGDConfig
}

// Step applies one gradient descent update to params.
func (s *sgd) Step(params []ValueGrad) error {
	for _, p := range params {
		value, grad := p.Value(), p.Grad()

		for j, g := range grad {
			if s.Clip > 0 {
				g = floatutils.Clip(g, -s.Clip, s.Clip)
			}
			value[j] -= s.StepSize * g
		}
	}
	return nil
}
