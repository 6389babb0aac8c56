package dataset

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/gotrain/utils/floatutils"
)

const (
	shapesSide    = 8
	shapesClasses = 4
)

// Shapes provides a four-class image classification dataset of 1200
// single-channel 8×8 glyphs: crosses, square outlines, horizontal
// stripes, and diagonal bars. Each sample is a clean glyph scaled by
// a random intensity with Gaussian pixel noise, clipped to [0, 1].
//
// Pixels are not standardized, so the Split carries no Scaler.
type Shapes struct {
	spec Spec
	seed uint64
}

// NewShapes returns a Shapes dataset generated from seed.
func NewShapes(seed uint64) *Shapes {
	return &Shapes{
		spec: Spec{
			ID:   "shapes",
			Name: "Shapes",
			Task: Classification,
			Description: "Noisy 8×8 grayscale glyphs: crosses, " +
				"square outlines, horizontal stripes, and diagonal " +
				"bars",
			InputShape:  []int{shapesSide, shapesSide, 1},
			NumFeatures: shapesSide * shapesSide,
			NumClasses:  shapesClasses,
			NumSamples:  1200,
			Recommended: Hyperparameters{
				Epochs:       30,
				LearningRate: 0.005,
				BatchSize:    64,
				Optimizer:    "adam",
			},
		},
		seed: seed,
	}
}

// Spec describes the dataset.
func (s *Shapes) Spec() Spec {
	return s.spec
}

// glyph renders the clean template for a class onto an 8×8 canvas
// with unit-intensity strokes.
func glyph(class int) [shapesSide * shapesSide]float64 {
	var canvas [shapesSide * shapesSide]float64
	set := func(y, x int) { canvas[y*shapesSide+x] = 1 }

	switch class {
	case 0: // cross
		for i := 1; i < shapesSide-1; i++ {
			set(i, 3)
			set(i, 4)
			set(3, i)
			set(4, i)
		}
	case 1: // square outline
		for i := 1; i < shapesSide-1; i++ {
			set(1, i)
			set(shapesSide-2, i)
			set(i, 1)
			set(i, shapesSide-2)
		}
	case 2: // horizontal stripes
		for y := 1; y < shapesSide; y += 2 {
			for x := 0; x < shapesSide; x++ {
				set(y, x)
			}
		}
	case 3: // diagonal bar
		for i := 0; i < shapesSide; i++ {
			set(i, i)
			if i+1 < shapesSide {
				set(i+1, i)
			}
		}
	}
	return canvas
}

// Load materializes the dataset. See Provider.Load for the meaning of
// maxSamples.
func (s *Shapes) Load(maxSamples int) (*Split, error) {
	src := rand.NewSource(s.seed)
	norm := distuv.Normal{Mu: 0, Sigma: 0.12, Src: src}
	intensity := distuv.Uniform{Min: 0.7, Max: 1, Src: src}

	n := s.spec.NumSamples
	perClass := n / shapesClasses

	x := mat.NewDense(n, s.spec.NumFeatures, nil)
	y := make([]float64, n)

	for class := 0; class < shapesClasses; class++ {
		template := glyph(class)
		for i := 0; i < perClass; i++ {
			row := x.RawRowView(class*perClass + i)
			scale := intensity.Rand()
			for p := range row {
				row[p] = floatutils.Clip(
					template[p]*scale+norm.Rand(), 0, 1)
			}
			y[class*perClass+i] = float64(class)
		}
	}

	rng := rand.New(src)
	x, y = shuffled(x, y, rng.Perm(n))
	x, y = truncate(x, y, maxSamples)
	return newSplit(x, y, false)
}
