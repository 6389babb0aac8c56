package initwfn

import "golang.org/x/exp/rand"

// OnesConfig implements a configuration of a weight initializer that
// initializes all weights to 1.
type OnesConfig struct{}

// NewOnes returns a new ones weight intializer
func NewOnes() (*InitWFn, error) {
	config := OnesConfig{}

	return newInitWFn(config)
}

// Type returns the type of the weight initializer created using this
// config
func (o OnesConfig) Type() Type {
	return Ones
}

// Create returns the weight initialization algorithm as a WeightsFn
func (o OnesConfig) Create() WeightsFn {
	return ConstantConfig{Value: 1}.Create()
}

// ConstantConfig implements a configuration of a weight initializer
// that initializes all weights to a constant value.
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a new constant weight intializer
func NewConstant(value float64) (*InitWFn, error) {
	config := ConstantConfig{value}

	return newInitWFn(config)
}

// Type returns the type of the weight initializer created using this
// config
func (c ConstantConfig) Type() Type {
	return Constant
}

// Create returns the weight initialization algorithm as a WeightsFn
func (c ConstantConfig) Create() WeightsFn {
	return func(_ *rand.Rand, _, _, n int) []float64 {
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = c.Value
		}
		return weights
	}
}
