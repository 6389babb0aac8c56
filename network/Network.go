// Package network compiles declarative layer architectures into
// trainable feed-forward neural networks.
//
// A compiled Network consumes batches as *mat.Dense with one sample
// per row. Image samples are flattened channel-major, matching
// dataset.Split. Classification networks emit raw logits; the fused
// cross-entropy Loss applies the softmax.
package network

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gotrain/arch"
	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/initwfn"
	"github.com/samuelfneumann/gotrain/solver"
	"github.com/samuelfneumann/gotrain/utils/intutils"
)

// CompilationError reports an architecture that could not be built
// into a network even though it passed validation.
type CompilationError struct {
	Position int
	Detail   string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("compile: layer %d: %v", e.Position, e.Detail)
}

// compileErrf returns a CompilationError with a formatted detail.
func compileErrf(pos int, format string, args ...interface{}) error {
	return &CompilationError{
		Position: pos,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// Network is a compiled feed-forward neural network.
type Network struct {
	layers []Layer
	loss   Loss
	params []*Param

	features int
	outputs  int
}

// reluFamily holds the activations whose layers get He weight
// initialization. Everything else gets Glorot.
var reluFamily = map[string]bool{
	"relu":       true,
	"elu":        true,
	"selu":       true,
	"gelu":       true,
	"leaky_relu": true,
	"softplus":   true,
}

// initFor returns the weight initializer for a layer with the given
// activation name.
func initFor(activation string) (*initwfn.InitWFn, error) {
	if reluFamily[activation] {
		return initwfn.NewHeU(1.0)
	}
	return initwfn.NewGlorotU(1.0)
}

// Compile builds a trainable network from an architecture already
// validated against ds. All weights are drawn from a generator
// seeded with seed, so equal calls build identical networks.
func Compile(layers []arch.Layer, ds dataset.Spec,
	seed uint64) (*Network, error) {
	if len(layers) < 2 || layers[0].Kind != arch.Input {
		return nil, compileErrf(0, "architecture must start with a "+
			"validated input layer")
	}
	if layers[len(layers)-1].Kind != arch.Output {
		return nil, compileErrf(len(layers)-1, "architecture must "+
			"end with an output layer")
	}

	rng := rand.New(rand.NewSource(seed))
	net := &Network{features: ds.NumFeatures}

	spatial := ds.Image()
	var height, width, channels int
	if spatial {
		height, width, channels = ds.InputShape[0], ds.InputShape[1],
			ds.InputShape[2]
	}
	flatWidth := ds.NumFeatures

	for i := 1; i < len(layers); i++ {
		layer := layers[i]
		name := fmt.Sprintf("%v%d", layer.Kind, i)

		switch layer.Kind {
		case arch.Hidden, arch.Output:
			if spatial {
				spatial = false
				flatWidth = intutils.Prod(height, width, channels)
			}

			act, err := ActivationByName(layer.Activation)
			if err != nil {
				return nil, compileErrf(i, "%v", err)
			}
			if layer.Kind == arch.Output {
				// Outputs stay raw: the loss owns the softmax, and
				// regression outputs are linear anyway.
				act = Identity()
			}
			if layer.Neurons < 1 {
				return nil, compileErrf(i, "dense layer needs at "+
					"least 1 neuron, got %d", layer.Neurons)
			}

			wInit, err := initFor(layer.Activation)
			if err != nil {
				return nil, compileErrf(i, "%v", err)
			}
			weights := wInit.Init(rng, flatWidth, layer.Neurons,
				flatWidth*layer.Neurons)

			dense, err := newDense(name, flatWidth, layer.Neurons, act,
				weights, make([]float64, layer.Neurons))
			if err != nil {
				return nil, compileErrf(i, "%v", err)
			}
			net.layers = append(net.layers, dense)
			flatWidth = layer.Neurons

		case arch.Dropout:
			net.layers = append(net.layers,
				newDropout(layer.Rate, rand.NewSource(rng.Uint64())))

		case arch.Conv2D:
			if !spatial {
				return nil, compileErrf(i, "conv2d has no spatial "+
					"shape to convolve")
			}

			act, err := ActivationByName(layer.Activation)
			if err != nil {
				return nil, compileErrf(i, "%v", err)
			}
			wInit, err := initFor(layer.Activation)
			if err != nil {
				return nil, compileErrf(i, "%v", err)
			}

			window := layer.Kernel * layer.Kernel
			weights := wInit.Init(rng, window*channels,
				window*layer.Filters,
				layer.Filters*channels*window)

			conv, err := newConv2D(name, height, width, channels,
				layer.Filters, layer.Kernel, act, weights,
				make([]float64, layer.Filters))
			if err != nil {
				return nil, compileErrf(i, "%v", err)
			}
			net.layers = append(net.layers, conv)
			height -= layer.Kernel - 1
			width -= layer.Kernel - 1
			channels = layer.Filters

		case arch.MaxPool2D:
			if !spatial {
				return nil, compileErrf(i, "maxpool2d has no spatial "+
					"shape to pool")
			}
			if layer.Pool < 1 || layer.Pool > height ||
				layer.Pool > width {
				return nil, compileErrf(i, "pool %d does not fit a "+
					"%dx%d input", layer.Pool, height, width)
			}
			net.layers = append(net.layers,
				newMaxPool2D(height, width, channels, layer.Pool))
			height /= layer.Pool
			width /= layer.Pool

		case arch.Flatten:
			if !spatial {
				return nil, compileErrf(i, "flatten has no spatial "+
					"shape to collapse")
			}
			net.layers = append(net.layers, newFlatten())
			spatial = false
			flatWidth = intutils.Prod(height, width, channels)

		default:
			return nil, compileErrf(i, "unexpected %v layer",
				layer.Kind)
		}
	}

	switch ds.Task {
	case dataset.Classification:
		net.loss = crossEntropy{}
	case dataset.Regression:
		net.loss = meanSquared{}
	default:
		return nil, compileErrf(0, "unknown task %q", ds.Task)
	}
	net.outputs = layers[len(layers)-1].Neurons

	for _, layer := range net.layers {
		net.params = append(net.params, layer.Params()...)
	}
	return net, nil
}

// Fwd runs a batch through the network, returning one output row per
// input row. Training mode enables activation caching and dropout.
func (n *Network) Fwd(x *mat.Dense, training bool) *mat.Dense {
	out := x
	for _, layer := range n.layers {
		out = layer.Fwd(out, training)
	}
	return out
}

// Bwd backpropagates the loss gradient through every layer, filling
// the parameter gradients for a following solver step. Bwd may only
// follow a training-mode Fwd of the same batch.
func (n *Network) Bwd(grad *mat.Dense) {
	for i := len(n.layers) - 1; i >= 0; i-- {
		grad = n.layers[i].Bwd(grad)
	}
}

// Model returns the trainable parameters in a stable order for a
// solver.
func (n *Network) Model() []solver.ValueGrad {
	model := make([]solver.ValueGrad, len(n.params))
	for i, p := range n.params {
		model[i] = p
	}
	return model
}

// Params returns the trainable parameters in the same order as
// Model.
func (n *Network) Params() []*Param {
	return n.params
}

// Loss returns the criterion the network was compiled with.
func (n *Network) Loss() Loss {
	return n.loss
}

// Features returns the flattened input width the network consumes.
func (n *Network) Features() int {
	return n.features
}

// Outputs returns the network's output width.
func (n *Network) Outputs() int {
	return n.outputs
}

// NumValues returns the total number of trainable values across all
// parameters.
func (n *Network) NumValues() int {
	total := 0
	for _, p := range n.params {
		total += len(p.value)
	}
	return total
}
