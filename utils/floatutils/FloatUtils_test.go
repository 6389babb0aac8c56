package floatutils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClip(t *testing.T) {
	require.Equal(t, 0.5, Clip(0.5, -1, 1))
	require.Equal(t, 1.0, Clip(3.2, -1, 1))
	require.Equal(t, -1.0, Clip(-7, -1, 1))
	require.Equal(t, -1.0, Clip(-1, -1, 1))
}

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{1, 4, 2, 4, 0})
	require.Equal(t, 4.0, max)
	require.Equal(t, []int{1, 3}, indices)

	max, indices = MaxSlice([]float64{9, -2, 3})
	require.Equal(t, 9.0, max)
	require.Equal(t, []int{0}, indices)
}

func TestArgMax(t *testing.T) {
	require.Equal(t, 2, ArgMax([]float64{-1, 0, 5, 5, 3}))
	require.Equal(t, 0, ArgMax([]float64{2}))
}

func TestMinMax(t *testing.T) {
	require.Equal(t, -3.5, Min(1, -3.5, 0, 7))
	require.Equal(t, 7.0, Max(1, -3.5, 0, 7))
	require.Equal(t, 2.0, Min(2))
	require.Equal(t, 2.0, Max(2))
}

func TestFinite(t *testing.T) {
	require.True(t, Finite(0))
	require.True(t, Finite(-1e308))
	require.False(t, Finite(math.NaN()))
	require.False(t, Finite(math.Inf(1)))
	require.False(t, Finite(math.Inf(-1)))

	require.True(t, AllFinite([]float64{1, 2, 3}))
	require.True(t, AllFinite(nil))
	require.False(t, AllFinite([]float64{1, math.NaN()}))
	require.False(t, AllFinite([]float64{math.Inf(-1), 0}))
}
