package dataset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestDefaultRegistryRoster(t *testing.T) {
	r := DefaultRegistry()

	specs := r.List()
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = s.ID
	}

	require.Equal(t, []string{
		"california_housing", "iris", "shapes", "spiral", "synthetic",
		"wine_quality",
	}, ids)

	for _, s := range specs {
		require.Positive(t, s.NumSamples, s.ID)
		require.Positive(t, s.NumFeatures, s.ID)
		require.GreaterOrEqual(t, s.Recommended.Epochs, 1, s.ID)
		require.Greater(t, s.Recommended.LearningRate, 0.0, s.ID)
		if s.Task == Classification {
			require.GreaterOrEqual(t, s.NumClasses, 2, s.ID)
		}
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.Get("mnist")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewIris(1)))
	require.Error(t, r.Register(NewIris(2)))
}

func TestLoadIsDeterministic(t *testing.T) {
	ir := NewIris(17)

	a, err := ir.Load(0)
	require.NoError(t, err)
	b, err := ir.Load(0)
	require.NoError(t, err)

	require.True(t, mat.Equal(a.XTrain, b.XTrain))
	require.True(t, mat.Equal(a.XTest, b.XTest))
	require.Equal(t, a.YTrain, b.YTrain)
	require.Equal(t, a.YTest, b.YTest)
}

func TestSplitFractions(t *testing.T) {
	split, err := NewIris(17).Load(0)
	require.NoError(t, err)
	require.Equal(t, 120, split.NumTrain())
	require.Equal(t, 30, split.NumTest())

	split, err = NewWineQuality(29).Load(0)
	require.NoError(t, err)
	require.Equal(t, 1280, split.NumTrain())
	require.Equal(t, 319, split.NumTest())
}

func TestMaxSamplesTruncatesBeforeSplit(t *testing.T) {
	split, err := NewIris(17).Load(50)
	require.NoError(t, err)
	require.Equal(t, 40, split.NumTrain())
	require.Equal(t, 10, split.NumTest())

	// Shapes skips standardization, so a truncated load must be a
	// row-for-row prefix of the full load.
	full, err := NewShapes(89).Load(0)
	require.NoError(t, err)
	small, err := NewShapes(89).Load(100)
	require.NoError(t, err)

	require.Equal(t, 80, small.NumTrain())
	for i := 0; i < small.NumTrain(); i++ {
		require.Equal(t, full.XTrain.RawRowView(i),
			small.XTrain.RawRowView(i), "row %d", i)
	}
}

func TestStandardizedColumns(t *testing.T) {
	split, err := NewIris(17).Load(0)
	require.NoError(t, err)
	require.NotNil(t, split.Scaler)

	_, cols := split.XTrain.Dims()
	col := make([]float64, split.NumTrain())
	for j := 0; j < cols; j++ {
		mat.Col(col, j, split.XTrain)
		mean, std := stat.MeanStdDev(col, nil)
		require.InDelta(t, 0, mean, 1e-8, "column %d mean", j)
		require.InDelta(t, 1, std, 1e-8, "column %d std", j)
	}
}

func TestScalerTransform(t *testing.T) {
	s := &Scaler{Mean: []float64{1, -2}, Std: []float64{2, 4}}

	out, err := s.Transform([]float64{3, 2})
	require.NoError(t, err)
	require.Equal(t, []float64{1, 1}, out)

	_, err = s.Transform([]float64{3})
	require.Error(t, err)
}

func TestClassificationLabelsInRange(t *testing.T) {
	r := DefaultRegistry()
	for _, spec := range r.List() {
		if spec.Task != Classification {
			continue
		}

		p, err := r.Get(spec.ID)
		require.NoError(t, err)
		split, err := p.Load(0)
		require.NoError(t, err)

		seen := make(map[float64]bool)
		for _, label := range append(split.YTrain, split.YTest...) {
			require.Equal(t, label, float64(int(label)), spec.ID)
			require.GreaterOrEqual(t, label, 0.0, spec.ID)
			require.Less(t, label, float64(spec.NumClasses), spec.ID)
			seen[label] = true
		}
		require.Len(t, seen, spec.NumClasses, spec.ID)
	}
}

func TestShapesPixels(t *testing.T) {
	sh := NewShapes(89)
	require.True(t, sh.Spec().Image())

	split, err := sh.Load(0)
	require.NoError(t, err)
	require.Nil(t, split.Scaler)

	rows, cols := split.XTrain.Dims()
	require.Equal(t, 64, cols)
	for i := 0; i < rows; i++ {
		for _, px := range split.XTrain.RawRowView(i) {
			require.GreaterOrEqual(t, px, 0.0)
			require.LessOrEqual(t, px, 1.0)
		}
	}
}
