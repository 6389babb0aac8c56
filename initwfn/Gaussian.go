package initwfn

import "golang.org/x/exp/rand"

// GaussianConfig implements a configuration of a weight initializer
// that draws weights from a gaussian distribution
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a new gaussian weight initializer
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	config := GaussianConfig{
		Mean:   mean,
		StdDev: stddev,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GaussianConfig) Type() Type {
	return Gaussian
}

// Create returns the weight initialization algorithm as a WeightsFn
func (g GaussianConfig) Create() WeightsFn {
	return func(rng *rand.Rand, _, _, n int) []float64 {
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = g.Mean + g.StdDev*rng.NormFloat64()
		}
		return weights
	}
}
