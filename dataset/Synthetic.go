package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SyntheticXOR provides a two-class dataset of 1000 points sampled
// uniformly from the square [-1, 1]², labelled by the XOR of the
// coordinate signs. The classes are not linearly separable, so the
// dataset is a quick check that a network can learn a nonlinear
// decision boundary.
type SyntheticXOR struct {
	spec Spec
	seed uint64
}

// NewSyntheticXOR returns a SyntheticXOR dataset generated from seed.
func NewSyntheticXOR(seed uint64) *SyntheticXOR {
	return &SyntheticXOR{
		spec: Spec{
			ID:   "synthetic",
			Name: "Synthetic XOR",
			Task: Classification,
			Description: "Uniform points on [-1, 1]² labelled by " +
				"the XOR of their coordinate signs",
			InputShape:  []int{2},
			NumFeatures: 2,
			NumClasses:  2,
			NumSamples:  1000,
			Recommended: Hyperparameters{
				Epochs:       100,
				LearningRate: 0.01,
				BatchSize:    64,
				Optimizer:    "adam",
			},
		},
		seed: seed,
	}
}

// Spec describes the dataset.
func (s *SyntheticXOR) Spec() Spec {
	return s.spec
}

// Load materializes the dataset. See Provider.Load for the meaning of
// maxSamples.
func (s *SyntheticXOR) Load(maxSamples int) (*Split, error) {
	src := rand.NewSource(s.seed)
	uni := distuv.Uniform{Min: -1, Max: 1, Src: src}

	n := s.spec.NumSamples
	x := mat.NewDense(n, s.spec.NumFeatures, nil)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		px, py := uni.Rand(), uni.Rand()
		x.SetRow(i, []float64{px, py})
		if (px > 0) != (py > 0) {
			y[i] = 1
		}
	}

	// Samples are already in random order, but shuffle anyway so the
	// class balance of truncated loads matches the other datasets.
	rng := rand.New(src)
	x, y = shuffled(x, y, rng.Perm(n))
	x, y = truncate(x, y, maxSamples)
	return newSplit(x, y, true)
}
