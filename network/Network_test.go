package network

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gotrain/arch"
	"github.com/samuelfneumann/gotrain/dataset"
)

// classSpec returns a minimal classification dataset description for
// compiling networks against.
func classSpec(features, classes int, shape ...int) dataset.Spec {
	if len(shape) == 0 {
		shape = []int{features}
	}
	return dataset.Spec{
		ID:          "test",
		Task:        dataset.Classification,
		InputShape:  shape,
		NumFeatures: features,
		NumClasses:  classes,
	}
}

// mustCompile validates and compiles an architecture, failing the
// test on any error.
func mustCompile(t *testing.T, layers []arch.Layer, ds dataset.Spec,
	seed uint64) *Network {
	t.Helper()

	canon, err := arch.Validate(layers, ds)
	require.NoError(t, err)

	net, err := Compile(canon, ds, seed)
	require.NoError(t, err)
	return net
}

// randBatch fills a rows × cols matrix with scaled Gaussian noise.
func randBatch(rng *rand.Rand, rows, cols int, scale float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = scale * rng.NormFloat64()
	}
	return mat.NewDense(rows, cols, data)
}

func TestCompileSeedReproducible(t *testing.T) {
	ds := classSpec(4, 3)
	layers := []arch.Layer{
		{Kind: arch.Input, Position: 0},
		{Kind: arch.Hidden, Position: 1, Neurons: 8, Activation: "relu"},
		{Kind: arch.Output, Position: 2, Neurons: 3,
			Activation: "softmax"},
	}

	first := mustCompile(t, layers, ds, 7)
	second := mustCompile(t, layers, ds, 7)

	require.Equal(t, len(first.Params()), len(second.Params()))
	for i, p := range first.Params() {
		require.Equal(t, p.Value(), second.Params()[i].Value(), p.Name())
	}

	x := randBatch(rand.New(rand.NewSource(1)), 5, 4, 1)
	require.True(t, mat.Equal(first.Fwd(x, false), second.Fwd(x, false)))

	third := mustCompile(t, layers, ds, 8)
	require.NotEqual(t, first.Params()[0].Value(),
		third.Params()[0].Value())
}

func TestCompileClassifierEmitsLogits(t *testing.T) {
	net := mustCompile(t, []arch.Layer{
		{Kind: arch.Input, Position: 0},
		{Kind: arch.Hidden, Position: 1, Neurons: 4, Activation: "tanh"},
		{Kind: arch.Output, Position: 2, Neurons: 3,
			Activation: "softmax"},
	}, classSpec(2, 3), 3)

	// The declared softmax lives in the loss, not the layer, so the
	// network's raw outputs are unnormalized.
	out, ok := net.layers[len(net.layers)-1].(*Dense)
	require.True(t, ok)
	require.True(t, out.act.IsIdentity())
	require.Equal(t, "cross_entropy", net.Loss().Name())
}

func TestForwardEvalDeterministic(t *testing.T) {
	net := mustCompile(t, []arch.Layer{
		{Kind: arch.Input, Position: 0},
		{Kind: arch.Hidden, Position: 1, Neurons: 8, Activation: "tanh"},
		{Kind: arch.Dropout, Position: 2, Rate: 0.5},
		{Kind: arch.Output, Position: 3, Neurons: 3},
	}, classSpec(4, 3), 19)

	x := randBatch(rand.New(rand.NewSource(2)), 5, 4, 1)

	evalOut := net.Fwd(x, false)
	require.True(t, mat.Equal(evalOut, net.Fwd(x, false)))

	// Training mode drops activations, so it disagrees with eval.
	require.False(t, mat.Equal(evalOut, net.Fwd(x, true)))
}

// checkGradients compares every parameter gradient produced by Bwd
// against a central finite difference of the loss.
func checkGradients(t *testing.T, net *Network, x *mat.Dense,
	targets []float64) {
	t.Helper()

	out := net.Fwd(x, true)
	_, grad := net.Loss().Eval(out, targets)
	net.Bwd(grad)

	analytic := make([][]float64, len(net.Params()))
	for i, p := range net.Params() {
		analytic[i] = append([]float64(nil), p.Grad()...)
	}

	const h = 1e-6
	lossAt := func() float64 {
		loss, _ := net.Loss().Eval(net.Fwd(x, false), targets)
		return loss
	}

	for i, p := range net.Params() {
		values := p.Value()
		for j := range values {
			orig := values[j]
			values[j] = orig + h
			plus := lossAt()
			values[j] = orig - h
			minus := lossAt()
			values[j] = orig

			numeric := (plus - minus) / (2 * h)
			require.InDelta(t, numeric, analytic[i][j], 1e-5,
				"%v[%d]", p.Name(), j)
		}
	}
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	t.Run("classifier", func(t *testing.T) {
		net := mustCompile(t, []arch.Layer{
			{Kind: arch.Input, Position: 0},
			{Kind: arch.Hidden, Position: 1, Neurons: 3,
				Activation: "tanh"},
			{Kind: arch.Output, Position: 2, Neurons: 2},
		}, classSpec(2, 2), 5)

		checkGradients(t, net, randBatch(rng, 4, 2, 0.7),
			[]float64{0, 1, 1, 0})
	})

	t.Run("regressor", func(t *testing.T) {
		ds := dataset.Spec{
			ID:          "test",
			Task:        dataset.Regression,
			InputShape:  []int{2},
			NumFeatures: 2,
		}
		net := mustCompile(t, []arch.Layer{
			{Kind: arch.Input, Position: 0},
			{Kind: arch.Hidden, Position: 1, Neurons: 3,
				Activation: "sigmoid"},
			{Kind: arch.Output, Position: 2, Neurons: 1},
		}, ds, 5)

		checkGradients(t, net, randBatch(rng, 4, 2, 0.7),
			[]float64{0.5, -0.2, 0.3, 0.9})
	})

	t.Run("convnet", func(t *testing.T) {
		net := mustCompile(t, []arch.Layer{
			{Kind: arch.Input, Position: 0},
			{Kind: arch.Conv2D, Position: 1, Filters: 2, Kernel: 2,
				Activation: "tanh"},
			{Kind: arch.MaxPool2D, Position: 2, Pool: 2},
			{Kind: arch.Flatten, Position: 3},
			{Kind: arch.Output, Position: 4, Neurons: 2},
		}, classSpec(25, 2, 5, 5, 1), 5)

		checkGradients(t, net, randBatch(rng, 3, 25, 0.5),
			[]float64{0, 1, 1})
	})
}

func TestCompileConvStackShapes(t *testing.T) {
	ds := classSpec(64, 4, 8, 8, 1)
	net := mustCompile(t, []arch.Layer{
		{Kind: arch.Input, Position: 0},
		{Kind: arch.Conv2D, Position: 1, Filters: 4, Kernel: 3,
			Activation: "relu"},
		{Kind: arch.MaxPool2D, Position: 2, Pool: 2},
		{Kind: arch.Flatten, Position: 3},
		{Kind: arch.Hidden, Position: 4, Neurons: 16,
			Activation: "relu"},
		{Kind: arch.Dropout, Position: 5, Rate: 0.25},
		{Kind: arch.Output, Position: 6, Neurons: 4,
			Activation: "softmax"},
	}, ds, 23)

	require.Equal(t, 64, net.Features())
	require.Equal(t, 4, net.Outputs())

	// conv 4·(1·3·3)+4, dense 36·16+16, output 16·4+4
	require.Equal(t, 40+592+68, net.NumValues())

	out := net.Fwd(randBatch(rand.New(rand.NewSource(4)), 2, 64, 1),
		false)
	rows, cols := out.Dims()
	require.Equal(t, 2, rows)
	require.Equal(t, 4, cols)
}

func TestConv2DForwardHandChecked(t *testing.T) {
	// One 3x3 input channel, a single 2x2 all-ones filter and a 0.5
	// bias reduce each window to its sum plus 0.5.
	conv, err := newConv2D("conv", 3, 3, 1, 1, 2, Identity(),
		[]float64{1, 1, 1, 1}, []float64{0.5})
	require.NoError(t, err)

	x := mat.NewDense(1, 9, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	out := conv.Fwd(x, false)

	rows, cols := out.Dims()
	require.Equal(t, 1, rows)
	require.Equal(t, 4, cols)
	require.InDelta(t, 12.5, out.At(0, 0), 1e-12)
	require.InDelta(t, 16.5, out.At(0, 1), 1e-12)
	require.InDelta(t, 24.5, out.At(0, 2), 1e-12)
	require.InDelta(t, 28.5, out.At(0, 3), 1e-12)
}

func TestMaxPool2DRoutesGradientToMax(t *testing.T) {
	pool := newMaxPool2D(4, 4, 1, 2)

	data := make([]float64, 16)
	for i := range data {
		data[i] = float64(i)
	}
	x := mat.NewDense(1, 16, data)

	out := pool.Fwd(x, true)
	require.Equal(t, []float64{5, 7, 13, 15}, out.RawRowView(0))

	dx := pool.Bwd(mat.NewDense(1, 4, []float64{1, 2, 3, 4}))
	want := make([]float64, 16)
	want[5], want[7], want[13], want[15] = 1, 2, 3, 4
	require.Equal(t, want, dx.RawRowView(0))
}

func TestDropoutLayer(t *testing.T) {
	d := newDropout(0.5, rand.NewSource(3))

	data := make([]float64, 64)
	for i := range data {
		data[i] = float64(i + 1)
	}
	x := mat.NewDense(8, 8, data)

	// Inference passes the batch through untouched.
	require.True(t, mat.Equal(x, d.Fwd(x, false)))

	out := d.Fwd(x, true)
	kept, dropped := 0, 0
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			switch out.At(i, j) {
			case 0:
				dropped++
			case 2 * x.At(i, j):
				kept++
			default:
				t.Fatalf("entry (%d,%d) = %v is neither dropped nor "+
					"rescaled", i, j, out.At(i, j))
			}
		}
	}
	require.Equal(t, 64, kept+dropped)
	require.Positive(t, kept)
	require.Positive(t, dropped)

	// The gradient reuses the forward mask.
	ones := mat.NewDense(8, 8, nil)
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			ones.Set(i, j, 1)
		}
	}
	dx := d.Bwd(ones)
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if out.At(i, j) == 0 {
				require.Zero(t, dx.At(i, j))
			} else {
				require.InDelta(t, 2, dx.At(i, j), 1e-12)
			}
		}
	}

	// A zero rate is a no-op even while training.
	none := newDropout(0, rand.NewSource(1))
	require.True(t, mat.Equal(x, none.Fwd(x, true)))
}

func TestCompileRejectsBadArchitectures(t *testing.T) {
	ds := classSpec(2, 2)
	var cerr *CompilationError

	_, err := Compile(nil, ds, 1)
	require.ErrorAs(t, err, &cerr)

	_, err = Compile([]arch.Layer{
		{Kind: arch.Input, Position: 0, Neurons: 2},
		{Kind: arch.Hidden, Position: 1, Neurons: 2},
	}, ds, 1)
	require.ErrorAs(t, err, &cerr)

	_, err = Compile([]arch.Layer{
		{Kind: arch.Input, Position: 0, Neurons: 2},
		{Kind: arch.Output, Position: 1, Neurons: 0},
	}, ds, 1)
	require.ErrorAs(t, err, &cerr)
	require.ErrorContains(t, err, "neuron")
}

func TestModelSharesParamBacking(t *testing.T) {
	net := mustCompile(t, []arch.Layer{
		{Kind: arch.Input, Position: 0},
		{Kind: arch.Output, Position: 1, Neurons: 2},
	}, classSpec(2, 2), 9)

	model := net.Model()
	require.Len(t, model, len(net.Params()))

	model[0].Value()[0] = 42
	require.Equal(t, 42.0, net.Params()[0].Value()[0])
}
