package initwfn

import (
	"math"

	"golang.org/x/exp/rand"
)

// GlorotUConfig implements a configuration of the Glorot Uniform
// initialization algorithm.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	config := GlorotUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm as a WeightsFn
func (g GlorotUConfig) Create() WeightsFn {
	return func(rng *rand.Rand, fanIn, fanOut, n int) []float64 {
		limit := g.Gain * math.Sqrt(6/float64(fanIn+fanOut))

		weights := make([]float64, n)
		for i := range weights {
			weights[i] = limit * (2*rng.Float64() - 1)
		}
		return weights
	}
}

// GlorotNConfig implements a configuration of the Glorot Normal
// initialization algorithm.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot Normal weight initializer.
func NewGlorotN(gain float64) (*InitWFn, error) {
	config := GlorotNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm as a WeightsFn
func (g GlorotNConfig) Create() WeightsFn {
	return func(rng *rand.Rand, fanIn, fanOut, n int) []float64 {
		stdDev := g.Gain * math.Sqrt(2/float64(fanIn+fanOut))

		weights := make([]float64, n)
		for i := range weights {
			weights[i] = stdDev * rng.NormFloat64()
		}
		return weights
	}
}
