package solver

import (
	"fmt"
	"math"
)

// AdamConfig describes a configuration of the Adam solver
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
}

// NewDefaultAdam returns a new Adam Solver with default hyperparameters
func NewDefaultAdam(stepSize float64) (*Solver, error) {
	return NewAdam(stepSize, 1e-8, 0.9, 0.999)
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64) (*Solver, error) {
	if beta1 < 0 || beta1 >= 1 || beta2 < 0 || beta2 >= 1 {
		return nil, fmt.Errorf("newAdam: decay rates must be in "+
			"[0, 1), got β1 = %v, β2 = %v", beta1, beta2)
	}

	adam := AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
	}

	return newSolver(Adam, adam)
}

// Create returns a new Adam Stepper as described by the AdamConfig
func (a AdamConfig) Create() Stepper {
	return &adam{AdamConfig: a}
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (a AdamConfig) ValidType(t Type) bool {
	return t == Adam
}

// adam implements the Adam update rule with bias-corrected first and
// second moment estimates.
type adam struct {
	AdamConfig

	m, v  [][]float64
	steps int
}

// Step applies one Adam update to params.
func (a *adam) Step(params []ValueGrad) error {
	if a.m == nil {
		a.m = newState(params)
		a.v = newState(params)
	}
	if err := checkParams(a.m, params); err != nil {
		return err
	}

	a.steps++
	c1 := 1 - math.Pow(a.Beta1, float64(a.steps))
	c2 := 1 - math.Pow(a.Beta2, float64(a.steps))

	for i, p := range params {
		value, grad := p.Value(), p.Grad()
		m, v := a.m[i], a.v[i]

		for j, g := range grad {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g

			mHat := m[j] / c1
			vHat := v[j] / c2
			value[j] -= a.StepSize * mHat / (math.Sqrt(vHat) + a.Epsilon)
		}
	}
	return nil
}
