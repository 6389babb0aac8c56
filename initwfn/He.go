package initwfn

import (
	"math"

	"golang.org/x/exp/rand"
)

// HeUConfig implements a configuration of the He uniform
// initialization algorithm.
type HeUConfig struct {
	Gain float64
}

// NewHeU returns a new He Uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	config := HeUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HeUConfig) Type() Type {
	return HeU
}

// Create returns the weight initialization algorithm as a WeightsFn
func (h HeUConfig) Create() WeightsFn {
	return func(rng *rand.Rand, fanIn, fanOut, n int) []float64 {
		limit := h.Gain * math.Sqrt(6/float64(fanIn))

		weights := make([]float64, n)
		for i := range weights {
			weights[i] = limit * (2*rng.Float64() - 1)
		}
		return weights
	}
}

// HeNConfig implements a configuration of the He normal
// initialization algorithm.
type HeNConfig struct {
	Gain float64
}

// NewHeN returns a new He Normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	config := HeNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HeNConfig) Type() Type {
	return HeN
}

// Create returns the weight initialization algorithm as a WeightsFn
func (h HeNConfig) Create() WeightsFn {
	return func(rng *rand.Rand, fanIn, fanOut, n int) []float64 {
		stdDev := h.Gain * math.Sqrt(2/float64(fanIn))

		weights := make([]float64, n)
		for i := range weights {
			weights[i] = stdDev * rng.NormFloat64()
		}
		return weights
	}
}
