package solver

import (
	"math"
)

// AdaGradConfig implements a specific configuration of the AdaGrad
// solver
type AdaGradConfig struct {
	StepSize float64
	Epsilon  float64
}

// NewDefaultAdaGrad returns a new AdaGrad Solver with default
// hyperparameters
func NewDefaultAdaGrad(stepSize float64) (*Solver, error) {
	return NewAdaGrad(stepSize, 1e-10)
}

// NewAdaGrad returns a new AdaGrad Solver
func NewAdaGrad(stepSize, epsilon float64) (*Solver, error) {
	adagrad := AdaGradConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
	}

	return newSolver(AdaGrad, adagrad)
}

// Create returns a new AdaGrad Stepper as described by the
// AdaGradConfig
func (a AdaGradConfig) Create() Stepper {
	return &adaGrad{AdaGradConfig: a}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (a AdaGradConfig) ValidType(t Type) bool {
	return t == AdaGrad
}

// adaGrad implements the AdaGrad update rule, scaling each step by
// the accumulated squared gradient magnitude.
type adaGrad struct {
	AdaGradConfig

	accum [][]float64
}

// Step applies one AdaGrad update to params.
func (a *adaGrad) Step(params []ValueGrad) error {
	if a.accum == nil {
		a.accum = newState(params)
	}
	if err := checkParams(a.accum, params); err != nil {
		return err
	}

	for i, p := range params {
		value, grad := p.Value(), p.Grad()
		accum := a.accum[i]

		for j, g := range grad {
			accum[j] += g * g
			value[j] -= a.StepSize * g / (math.Sqrt(accum[j]) + a.Epsilon)
		}
	}
	return nil
}
