package dataset

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Spiral provides a two-class dataset of 1000 points lying on two
// interleaved spiral arms offset by half a turn, with Gaussian jitter
// around each arm. Separating the arms needs a decision boundary
// that tracks the spiral, making this a harder nonlinear benchmark
// than SyntheticXOR.
type Spiral struct {
	spec Spec
	seed uint64
}

// NewSpiral returns a Spiral dataset generated from seed.
func NewSpiral(seed uint64) *Spiral {
	return &Spiral{
		spec: Spec{
			ID:   "spiral",
			Name: "Two Spirals",
			Task: Classification,
			Description: "Points on two interleaved spiral arms " +
				"with Gaussian jitter",
			InputShape:  []int{2},
			NumFeatures: 2,
			NumClasses:  2,
			NumSamples:  1000,
			Recommended: Hyperparameters{
				Epochs:       150,
				LearningRate: 0.01,
				BatchSize:    64,
				Optimizer:    "adam",
			},
		},
		seed: seed,
	}
}

// Spec describes the dataset.
func (s *Spiral) Spec() Spec {
	return s.spec
}

// Load materializes the dataset. See Provider.Load for the meaning of
// maxSamples.
func (s *Spiral) Load(maxSamples int) (*Split, error) {
	src := rand.NewSource(s.seed)
	norm := distuv.Normal{Mu: 0, Sigma: 0.05, Src: src}

	n := s.spec.NumSamples
	perArm := n / 2

	x := mat.NewDense(n, s.spec.NumFeatures, nil)
	y := make([]float64, n)

	for arm := 0; arm < 2; arm++ {
		for i := 0; i < perArm; i++ {
			t := float64(i) / float64(perArm)
			radius := 0.1 + 0.9*t
			theta := 3*math.Pi*t + math.Pi*float64(arm)

			row := x.RawRowView(arm*perArm + i)
			row[0] = radius*math.Cos(theta) + norm.Rand()
			row[1] = radius*math.Sin(theta) + norm.Rand()
			y[arm*perArm+i] = float64(arm)
		}
	}

	rng := rand.New(src)
	x, y = shuffled(x, y, rng.Perm(n))
	x, y = truncate(x, y, maxSamples)
	return newSplit(x, y, true)
}
