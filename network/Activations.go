package network

import (
	"fmt"
	"math"
)

type activationType string

const (
	relu      activationType = "relu"
	identity  activationType = "identity"
	tanh      activationType = "tanh"
	sigmoid   activationType = "sigmoid"
	softmax   activationType = "softmax"
	elu       activationType = "elu"
	selu      activationType = "selu"
	softplus  activationType = "softplus"
	gelu      activationType = "gelu"
	leakyRelu activationType = "leaky_relu"
)

const (
	// Fixed points of the self-normalizing SELU activation.
	seluLambda = 1.0507009873554805
	seluAlpha  = 1.6732632423543772

	leakySlope = 0.01
)

// Activation represents an activation function type. The forward and
// backward functions operate on one row of values at a time, which
// lets softmax normalize across the row.
type Activation struct {
	activationType
	f  func(dst, x []float64)
	df func(dst, grad, x, y []float64)
}

// fwd applies the activation to one row x, writing into dst. dst and
// x may alias.
func (a *Activation) fwd(dst, x []float64) {
	a.f(dst, x)
}

// bwd computes the loss gradient with respect to one row of
// pre-activations x, given the gradient with respect to the outputs
// grad and the cached outputs y. The result is written into dst.
func (a *Activation) bwd(dst, grad, x, y []float64) {
	a.df(dst, grad, x, y)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// ActivationByName returns the Activation for a canonical lowercase
// name. The empty string and "linear" name the identity.
func ActivationByName(name string) (*Activation, error) {
	switch name {
	case "", "linear":
		return Identity(), nil
	case "relu":
		return ReLU(), nil
	case "tanh":
		return TanH(), nil
	case "sigmoid":
		return Sigmoid(), nil
	case "softmax":
		return SoftmaxActivation(), nil
	case "elu":
		return ELU(), nil
	case "selu":
		return SELU(), nil
	case "softplus":
		return Softplus(), nil
	case "gelu":
		return GELU(), nil
	case "leaky_relu":
		return LeakyReLU(), nil
	default:
		return nil, fmt.Errorf("activationByName: unknown "+
			"activation %q", name)
	}
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f: func(dst, x []float64) {
			copy(dst, x)
		},
		df: func(dst, grad, _, _ []float64) {
			copy(dst, grad)
		},
	}
}

// ReLU returns a ReLU *Activation
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f: func(dst, x []float64) {
			for i, v := range x {
				dst[i] = math.Max(0, v)
			}
		},
		df: func(dst, grad, x, _ []float64) {
			for i, v := range x {
				if v > 0 {
					dst[i] = grad[i]
				} else {
					dst[i] = 0
				}
			}
		},
	}
}

// TanH returns a tanh *Activation
func TanH() *Activation {
	return &Activation{
		activationType: tanh,
		f: func(dst, x []float64) {
			for i, v := range x {
				dst[i] = math.Tanh(v)
			}
		},
		df: func(dst, grad, _, y []float64) {
			for i, v := range y {
				dst[i] = grad[i] * (1 - v*v)
			}
		},
	}
}

// Sigmoid returns a logistic sigmoid *Activation
func Sigmoid() *Activation {
	return &Activation{
		activationType: sigmoid,
		f: func(dst, x []float64) {
			for i, v := range x {
				dst[i] = 1 / (1 + math.Exp(-v))
			}
		},
		df: func(dst, grad, _, y []float64) {
			for i, v := range y {
				dst[i] = grad[i] * v * (1 - v)
			}
		},
	}
}

// SoftmaxActivation returns a row-wise softmax *Activation
func SoftmaxActivation() *Activation {
	return &Activation{
		activationType: softmax,
		f: func(dst, x []float64) {
			softmaxRow(dst, x)
		},
		df: func(dst, grad, _, y []float64) {
			var dot float64
			for i, v := range y {
				dot += grad[i] * v
			}
			for i, v := range y {
				dst[i] = v * (grad[i] - dot)
			}
		},
	}
}

// ELU returns an exponential linear unit *Activation with α = 1
func ELU() *Activation {
	return &Activation{
		activationType: elu,
		f: func(dst, x []float64) {
			for i, v := range x {
				if v > 0 {
					dst[i] = v
				} else {
					dst[i] = math.Expm1(v)
				}
			}
		},
		df: func(dst, grad, x, y []float64) {
			for i, v := range x {
				if v > 0 {
					dst[i] = grad[i]
				} else {
					dst[i] = grad[i] * (y[i] + 1)
				}
			}
		},
	}
}

// SELU returns a scaled exponential linear unit *Activation
func SELU() *Activation {
	return &Activation{
		activationType: selu,
		f: func(dst, x []float64) {
			for i, v := range x {
				if v > 0 {
					dst[i] = seluLambda * v
				} else {
					dst[i] = seluLambda * seluAlpha * math.Expm1(v)
				}
			}
		},
		df: func(dst, grad, x, y []float64) {
			for i, v := range x {
				if v > 0 {
					dst[i] = grad[i] * seluLambda
				} else {
					dst[i] = grad[i] * (y[i] + seluLambda*seluAlpha)
				}
			}
		},
	}
}

// Softplus returns a softplus *Activation
func Softplus() *Activation {
	return &Activation{
		activationType: softplus,
		f: func(dst, x []float64) {
			for i, v := range x {
				dst[i] = math.Max(v, 0) + math.Log1p(math.Exp(-math.Abs(v)))
			}
		},
		df: func(dst, grad, x, _ []float64) {
			for i, v := range x {
				dst[i] = grad[i] / (1 + math.Exp(-v))
			}
		},
	}
}

// GELU returns a Gaussian error linear unit *Activation using the
// tanh approximation
func GELU() *Activation {
	c := math.Sqrt(2 / math.Pi)
	return &Activation{
		activationType: gelu,
		f: func(dst, x []float64) {
			for i, v := range x {
				dst[i] = 0.5 * v *
					(1 + math.Tanh(c*(v+0.044715*v*v*v)))
			}
		},
		df: func(dst, grad, x, _ []float64) {
			for i, v := range x {
				u := math.Tanh(c * (v + 0.044715*v*v*v))
				du := (1 - u*u) * c * (1 + 3*0.044715*v*v)
				dst[i] = grad[i] * (0.5*(1+u) + 0.5*v*du)
			}
		},
	}
}

// LeakyReLU returns a leaky ReLU *Activation
func LeakyReLU() *Activation {
	return &Activation{
		activationType: leakyRelu,
		f: func(dst, x []float64) {
			for i, v := range x {
				if v > 0 {
					dst[i] = v
				} else {
					dst[i] = leakySlope * v
				}
			}
		},
		df: func(dst, grad, x, _ []float64) {
			for i, v := range x {
				if v > 0 {
					dst[i] = grad[i]
				} else {
					dst[i] = grad[i] * leakySlope
				}
			}
		},
	}
}
