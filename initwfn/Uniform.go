package initwfn

import "golang.org/x/exp/rand"

// UniformConfig implements a configuration of a weight initializer
// that draws weights from a uniform distribution
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	config := UniformConfig{
		Low:  low,
		High: high,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u UniformConfig) Type() Type {
	return Uniform
}

// Create returns the weight initialization algorithm as a WeightsFn
func (u UniformConfig) Create() WeightsFn {
	return func(rng *rand.Rand, _, _, n int) []float64 {
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = u.Low + (u.High-u.Low)*rng.Float64()
		}
		return weights
	}
}
