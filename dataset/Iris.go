package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// irisMeans and irisStds hold the per-class feature statistics of the
// classic iris measurements: sepal length, sepal width, petal length,
// and petal width in centimetres.
var irisMeans = [3][4]float64{
	{5.01, 3.43, 1.46, 0.25},
	{5.94, 2.77, 4.26, 1.33},
	{6.59, 2.97, 5.55, 2.03},
}

var irisStds = [3][4]float64{
	{0.35, 0.38, 0.17, 0.11},
	{0.52, 0.31, 0.47, 0.20},
	{0.64, 0.32, 0.55, 0.27},
}

// Iris provides a three-class flower classification dataset of 150
// samples drawn from per-class Gaussians fit to the classic iris
// measurements.
type Iris struct {
	spec Spec
	seed uint64
}

// NewIris returns an Iris dataset generated from seed.
func NewIris(seed uint64) *Iris {
	return &Iris{
		spec: Spec{
			ID:   "iris",
			Name: "Iris",
			Task: Classification,
			Description: "Three species of iris flowers described " +
				"by four petal and sepal measurements",
			InputShape:  []int{4},
			NumFeatures: 4,
			NumClasses:  3,
			NumSamples:  150,
			Recommended: Hyperparameters{
				Epochs:       50,
				LearningRate: 0.01,
				BatchSize:    32,
				Optimizer:    "adam",
			},
		},
		seed: seed,
	}
}

// Spec describes the dataset.
func (ir *Iris) Spec() Spec {
	return ir.spec
}

// Load materializes the dataset. See Provider.Load for the meaning of
// maxSamples.
func (ir *Iris) Load(maxSamples int) (*Split, error) {
	src := rand.NewSource(ir.seed)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	n := ir.spec.NumSamples
	perClass := n / ir.spec.NumClasses

	x := mat.NewDense(n, ir.spec.NumFeatures, nil)
	y := make([]float64, n)
	for class := 0; class < ir.spec.NumClasses; class++ {
		for i := 0; i < perClass; i++ {
			row := x.RawRowView(class*perClass + i)
			for f := range row {
				row[f] = irisMeans[class][f] +
					norm.Rand()*irisStds[class][f]
			}
			y[class*perClass+i] = float64(class)
		}
	}

	rng := rand.New(src)
	x, y = shuffled(x, y, rng.Perm(n))
	x, y = truncate(x, y, maxSamples)
	return newSplit(x, y, true)
}
