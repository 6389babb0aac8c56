package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActivationValues(t *testing.T) {
	check := func(act *Activation, in, want float64) {
		t.Helper()
		out := make([]float64, 1)
		act.fwd(out, []float64{in})
		require.InDelta(t, want, out[0], 1e-12, "%v(%v)", act, in)
	}

	check(ReLU(), -1.5, 0)
	check(ReLU(), 2, 2)
	check(Identity(), -3.25, -3.25)
	check(TanH(), 0, 0)
	check(Sigmoid(), 0, 0.5)
	check(ELU(), -1, math.Expm1(-1))
	check(ELU(), 2, 2)
	check(SELU(), 1, seluLambda)
	check(SELU(), -1, seluLambda*seluAlpha*math.Expm1(-1))
	check(Softplus(), 0, math.Log(2))
	check(LeakyReLU(), -2, -0.02)
	check(LeakyReLU(), 3, 3)
	check(GELU(), 0, 0)

	// GELU approaches the identity for large inputs and zero for
	// large negative inputs.
	out := make([]float64, 2)
	GELU().fwd(out, []float64{8, -8})
	require.InDelta(t, 8, out[0], 1e-9)
	require.InDelta(t, 0, out[1], 1e-9)
}

func TestActivationDerivatives(t *testing.T) {
	xs := []float64{-2.1, -0.7, -0.1, 0.3, 1.4}
	grad := []float64{1, 1, 1, 1, 1}
	h := 1e-5

	acts := []*Activation{
		Identity(), ReLU(), TanH(), Sigmoid(), ELU(), SELU(),
		Softplus(), GELU(), LeakyReLU(),
	}
	for _, act := range acts {
		y := make([]float64, len(xs))
		act.fwd(y, xs)

		analytic := make([]float64, len(xs))
		act.bwd(analytic, grad, xs, y)

		for i := range xs {
			plus := append([]float64(nil), xs...)
			minus := append([]float64(nil), xs...)
			plus[i] += h
			minus[i] -= h

			yPlus := make([]float64, len(xs))
			yMinus := make([]float64, len(xs))
			act.fwd(yPlus, plus)
			act.fwd(yMinus, minus)

			numeric := (yPlus[i] - yMinus[i]) / (2 * h)
			require.InDelta(t, numeric, analytic[i], 1e-6,
				"%v'(%v)", act, xs[i])
		}
	}
}

// The softmax derivative couples every output to every input, so it
// gets its own finite-difference check through a scalar objective.
func TestSoftmaxActivationJacobian(t *testing.T) {
	act := SoftmaxActivation()
	xs := []float64{0.2, -1.1, 0.9, 0.4}
	grad := []float64{0.3, -0.5, 1.2, 0.1}
	h := 1e-6

	y := make([]float64, len(xs))
	act.fwd(y, xs)

	analytic := make([]float64, len(xs))
	act.bwd(analytic, grad, xs, y)

	objective := func(in []float64) float64 {
		out := make([]float64, len(in))
		act.fwd(out, in)
		var total float64
		for i, g := range grad {
			total += g * out[i]
		}
		return total
	}

	for i := range xs {
		plus := append([]float64(nil), xs...)
		minus := append([]float64(nil), xs...)
		plus[i] += h
		minus[i] -= h

		numeric := (objective(plus) - objective(minus)) / (2 * h)
		require.InDelta(t, numeric, analytic[i], 1e-6)
	}
}

func TestSoftmaxActivationRowsSumToOne(t *testing.T) {
	act := SoftmaxActivation()

	out := make([]float64, 3)
	act.fwd(out, []float64{1000, 999, 998})

	var sum float64
	for _, v := range out {
		require.True(t, v > 0 && v <= 1)
		sum += v
	}
	require.InDelta(t, 1, sum, 1e-12)
	require.True(t, out[0] > out[1] && out[1] > out[2])
}

func TestActivationByName(t *testing.T) {
	for _, name := range []string{"", "linear"} {
		act, err := ActivationByName(name)
		require.NoError(t, err)
		require.True(t, act.IsIdentity())
	}

	act, err := ActivationByName("leaky_relu")
	require.NoError(t, err)
	require.Equal(t, "leaky_relu", act.String())

	_, err = ActivationByName("swish")
	require.Error(t, err)
}
