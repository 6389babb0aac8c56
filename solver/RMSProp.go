package solver

import (
	"fmt"
	"math"
)

// RMSPropConfig implements a specific configuration of the RMSProp
// solver
type RMSPropConfig struct {
	StepSize float64
	Epsilon  float64
	Rho      float64 // Decay rate of the squared gradient average
}

// NewDefaultRMSProp returns a new RMSProp Solver with default
// hyperparameters
func NewDefaultRMSProp(stepSize float64) (*Solver, error) {
	return NewRMSProp(stepSize, 1e-8, 0.9)
}

// NewRMSProp returns a new RMSProp Solver
func NewRMSProp(stepSize, epsilon, rho float64) (*Solver, error) {
	if rho < 0 || rho >= 1 {
		return nil, fmt.Errorf("newRMSProp: decay rate must be in "+
			"[0, 1), got ρ = %v", rho)
	}

	rmsprop := RMSPropConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Rho:      rho,
	}

	return newSolver(RMSProp, rmsprop)
}

// Create returns a new RMSProp Stepper as described by the
// RMSPropConfig
func (r RMSPropConfig) Create() Stepper {
	return &rmsProp{RMSPropConfig: r}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (r RMSPropConfig) ValidType(t Type) bool {
	return t == RMSProp
}

// rmsProp implements the RMSProp update rule, scaling each step by a
// decaying average of squared gradients.
type rmsProp struct {
	RMSPropConfig

	cache [][]float64
}

// Step applies one RMSProp update to params.
func (r *rmsProp) Step(params []ValueGrad) error {
	if r.cache == nil {
		r.cache = newState(params)
	}
	if err := checkParams(r.cache, params); err != nil {
		return err
	}

	for i, p := range params {
		value, grad := p.Value(), p.Grad()
		cache := r.cache[i]

		for j, g := range grad {
			cache[j] = r.Rho*cache[j] + (1-r.Rho)*g*g
			value[j] -= r.StepSize * g / (math.Sqrt(cache[j]) + r.Epsilon)
		}
	}
	return nil
}
