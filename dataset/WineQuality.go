package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// wineBase holds typical red wine physicochemical measurements:
// fixed acidity, volatile acidity, citric acid, residual sugar,
// chlorides, free sulfur dioxide, total sulfur dioxide, density, pH,
// sulphates, and alcohol.
var wineBase = [11]float64{
	8.32, 0.53, 0.27, 2.54, 0.087, 15.9, 46.5, 0.9967, 3.31, 0.66, 10.4,
}

// wineTrend is how each measurement drifts per quality step above or
// below the median quality.
var wineTrend = [11]float64{
	0.05, -0.055, 0.035, -0.05, -0.004, -0.6, -4.5, -0.0002, -0.01,
	0.045, 0.46,
}

// wineSigma is the within-class spread of each measurement.
var wineSigma = [11]float64{
	1.6, 0.14, 0.17, 1.2, 0.04, 9.5, 28.0, 0.0018, 0.15, 0.14, 0.85,
}

// wineCounts is the number of samples per quality class, ordered from
// quality 3 through quality 8. The imbalance mirrors the real red
// wine quality distribution.
var wineCounts = [6]int{9, 53, 681, 638, 199, 19}

// WineQuality provides a six-class wine rating dataset of 1599
// samples whose feature distributions drift with the quality class.
// Class indices 0 through 5 correspond to quality scores 3 through 8.
type WineQuality struct {
	spec Spec
	seed uint64
}

// NewWineQuality returns a WineQuality dataset generated from seed.
func NewWineQuality(seed uint64) *WineQuality {
	return &WineQuality{
		spec: Spec{
			ID:   "wine_quality",
			Name: "Wine Quality",
			Task: Classification,
			Description: "Red wine quality ratings predicted from " +
				"eleven physicochemical measurements",
			InputShape:  []int{11},
			NumFeatures: 11,
			NumClasses:  6,
			NumSamples:  1599,
			Recommended: Hyperparameters{
				Epochs:       75,
				LearningRate: 0.005,
				BatchSize:    64,
				Optimizer:    "adam",
			},
		},
		seed: seed,
	}
}

// Spec describes the dataset.
func (w *WineQuality) Spec() Spec {
	return w.spec
}

// Load materializes the dataset. See Provider.Load for the meaning of
// maxSamples.
func (w *WineQuality) Load(maxSamples int) (*Split, error) {
	src := rand.NewSource(w.seed)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	n := w.spec.NumSamples
	x := mat.NewDense(n, w.spec.NumFeatures, nil)
	y := make([]float64, n)

	sample := 0
	for class, count := range wineCounts {
		// Center the drift on the median quality class.
		drift := float64(class) - 2.5
		for i := 0; i < count; i++ {
			row := x.RawRowView(sample)
			for f := range row {
				row[f] = wineBase[f] + wineTrend[f]*drift +
					norm.Rand()*wineSigma[f]
			}
			y[sample] = float64(class)
			sample++
		}
	}

	rng := rand.New(src)
	x, y = shuffled(x, y, rng.Perm(n))
	x, y = truncate(x, y, maxSamples)
	return newSplit(x, y, true)
}
