package initwfn

import "golang.org/x/exp/rand"

// ZeroesConfig implements a configuration of a zero weight initializer
type ZeroesConfig struct{}

// NewZeroes returns a new zeroes weight intializer
func NewZeroes() (*InitWFn, error) {
	config := ZeroesConfig{}

	return newInitWFn(config)
}

// Type returns the type of the weight initializer created using this
// config
func (z ZeroesConfig) Type() Type {
	return Zeroes
}

// Create returns the weight initialization algorithm as a WeightsFn
func (z ZeroesConfig) Create() WeightsFn {
	return func(_ *rand.Rand, _, _, n int) []float64 {
		return make([]float64, n)
	}
}
