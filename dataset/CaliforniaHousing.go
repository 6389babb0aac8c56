package dataset

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/gotrain/utils/floatutils"
)

// CaliforniaHousing provides a regression dataset of 20640 samples
// modelled on the California housing census: eight block-group
// features predicting the median house value in hundreds of
// thousands of dollars.
//
// Features, in column order: median income, house age, average
// rooms, average bedrooms, population, average occupancy, latitude,
// and longitude.
type CaliforniaHousing struct {
	spec Spec
	seed uint64
}

// NewCaliforniaHousing returns a CaliforniaHousing dataset generated
// from seed.
func NewCaliforniaHousing(seed uint64) *CaliforniaHousing {
	return &CaliforniaHousing{
		spec: Spec{
			ID:   "california_housing",
			Name: "California Housing",
			Task: Regression,
			Description: "Median house values of California census " +
				"block groups predicted from eight demographic " +
				"features",
			InputShape:  []int{8},
			NumFeatures: 8,
			NumSamples:  20640,
			Recommended: Hyperparameters{
				Epochs:       20,
				LearningRate: 0.001,
				BatchSize:    512,
				Optimizer:    "adam",
			},
		},
		seed: seed,
	}
}

// Spec describes the dataset.
func (c *CaliforniaHousing) Spec() Spec {
	return c.spec
}

// Load materializes the dataset. See Provider.Load for the meaning of
// maxSamples.
func (c *CaliforniaHousing) Load(maxSamples int) (*Split, error) {
	src := rand.NewSource(c.seed)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	uni := distuv.Uniform{Min: 0, Max: 1, Src: src}

	n := c.spec.NumSamples
	x := mat.NewDense(n, c.spec.NumFeatures, nil)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		medInc := floatutils.Clip(math.Exp(1.26+0.5*norm.Rand()), 0.5, 15)
		houseAge := 1 + 51*uni.Rand()
		aveRooms := floatutils.Clip(5.4+1.2*norm.Rand(), 1, 15)
		aveBedrms := floatutils.Clip(1.1+0.15*norm.Rand(), 0.5, 3)
		population := floatutils.Clip(math.Exp(7.0+0.7*norm.Rand()),
			50, 20000)
		aveOccup := floatutils.Clip(2.9+0.8*norm.Rand(), 1, 10)
		latitude := 32.5 + 9.5*uni.Rand()
		longitude := -124.3 + 10*uni.Rand()

		x.SetRow(i, []float64{medInc, houseAge, aveRooms, aveBedrms,
			population, aveOccup, latitude, longitude})

		// House values rise with income and room surplus, fall with
		// crowding, and carry a coastal premium that fades inland.
		coast := math.Exp(-math.Pow(longitude+122.3, 2)/8 -
			math.Pow(latitude-37.3, 2)/18)
		value := 0.45*medInc + 0.009*houseAge +
			0.11*(aveRooms-aveBedrms) - 0.09*aveOccup +
			0.9*coast + 0.3*norm.Rand()
		y[i] = floatutils.Clip(value, 0.15, 5)
	}

	rng := rand.New(src)
	x, y = shuffled(x, y, rng.Perm(n))
	x, y = truncate(x, y, maxSamples)
	return newSplit(x, y, true)
}
