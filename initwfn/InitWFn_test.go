package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestGlorotUBounds(t *testing.T) {
	init, err := NewGlorotU(1.0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	fanIn, fanOut := 64, 16
	weights := init.Init(rng, fanIn, fanOut, fanIn*fanOut)
	require.Len(t, weights, fanIn*fanOut)

	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	var sum float64
	for _, w := range weights {
		require.LessOrEqual(t, math.Abs(w), limit)
		sum += w
	}
	require.InDelta(t, 0, sum/float64(len(weights)), limit/4)
}

func TestHeUScalesWithFanIn(t *testing.T) {
	init, err := NewHeU(1.0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	limit := math.Sqrt(6 / float64(25))
	for _, w := range init.Init(rng, 25, 10, 250) {
		require.LessOrEqual(t, math.Abs(w), limit)
	}
}

func TestZeroesAndOnes(t *testing.T) {
	zeroes, err := NewZeroes()
	require.NoError(t, err)
	for _, w := range zeroes.Init(nil, 3, 3, 9) {
		require.Zero(t, w)
	}

	ones, err := NewOnes()
	require.NoError(t, err)
	for _, w := range ones.Init(nil, 3, 3, 9) {
		require.Equal(t, 1.0, w)
	}
}

func TestUniformRange(t *testing.T) {
	init, err := NewUniform(-0.25, 0.5)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for _, w := range init.Init(rng, 4, 4, 100) {
		require.GreaterOrEqual(t, w, -0.25)
		require.Less(t, w, 0.5)
	}
}

func TestInitWFnJSONRoundTrip(t *testing.T) {
	init, err := NewGaussian(0.5, 0.1)
	require.NoError(t, err)

	data, err := json.Marshal(init)
	require.NoError(t, err)

	var decoded InitWFn
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, Gaussian, decoded.Type)
	require.Equal(t, GaussianConfig{Mean: 0.5, StdDev: 0.1},
		decoded.Config)

	rng := rand.New(rand.NewSource(3))
	require.Len(t, decoded.Init(rng, 2, 2, 4), 4)
}

func TestInitWFnUnmarshalUnknownType(t *testing.T) {
	var decoded InitWFn
	err := json.Unmarshal([]byte(`{"Type":"Sparse","Config":{}}`),
		&decoded)
	require.Error(t, err)
}
