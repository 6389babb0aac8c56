package arch

import (
	"sort"
	"strings"

	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/utils/intutils"
)

// Validate checks an architecture against the dataset it will be
// trained on and returns its canonical form: layers sorted by
// position, names lowercased, the input width pinned to the
// dataset's feature count, and an omitted output width filled in
// from the dataset's class count.
//
// The input slice is never modified. Any violation is reported as a
// ValidationError.
func Validate(layers []Layer, ds dataset.Spec) ([]Layer, error) {
	if len(layers) == 0 {
		return nil, errf(EmptyArchitecture, "architecture has no layers")
	}

	canon := make([]Layer, len(layers))
	copy(canon, layers)
	sort.SliceStable(canon, func(i, j int) bool {
		return canon[i].Position < canon[j].Position
	})

	numIn, numOut := 0, 0
	for i := range canon {
		if canon[i].Position != i {
			return nil, errf(PositionGap, "positions must be a "+
				"gapless run from 0 to %d, got %d at index %d",
				len(canon)-1, canon[i].Position, i)
		}

		canon[i].Kind = Kind(strings.ToLower(strings.TrimSpace(
			string(canon[i].Kind))))
		canon[i].Activation = strings.ToLower(strings.TrimSpace(
			canon[i].Activation))

		switch canon[i].Kind {
		case Input:
			numIn++
		case Output:
			numOut++
		case Hidden, Dropout, Conv2D, MaxPool2D, Flatten:
		default:
			return nil, errf(UnknownLayerKind, "unknown layer type "+
				"%q at position %d", canon[i].Kind, i)
		}
	}

	if numIn != 1 || numOut != 1 {
		return nil, errf(MissingInputOrOutput, "architecture needs "+
			"exactly one input and one output layer, got %d and %d",
			numIn, numOut)
	}
	if canon[0].Kind != Input {
		return nil, errf(MissingInputOrOutput,
			"the first layer must be the input, got %v", canon[0].Kind)
	}
	last := len(canon) - 1
	if canon[last].Kind != Output {
		return nil, errf(MissingInputOrOutput,
			"the last layer must be the output, got %v", canon[last].Kind)
	}

	if act := canon[0].Activation; act != "" && act != "linear" {
		return nil, errf(ActivationOnInput,
			"input layer cannot have activation %q", act)
	}
	canon[0].Activation = ""
	canon[0].Neurons = ds.NumFeatures

	// Walk the interior tracking the spatial shape. Image datasets
	// start spatial; the first dense layer or an explicit flatten
	// collapses the shape, after which spatial layers are illegal.
	spatial := ds.Image()
	var height, width int
	if spatial {
		height, width = ds.InputShape[0], ds.InputShape[1]
	}
	sawSpatialOp := false

	for i := 1; i <= last; i++ {
		layer := &canon[i]

		switch layer.Kind {
		case Hidden, Output:
			if spatial && sawSpatialOp {
				return nil, errf(DenseAfterSpatialWithoutFlatten,
					"%v layer at position %d follows spatial layers "+
						"without a flatten", layer.Kind, i)
			}
			spatial = false

			if layer.Kind == Hidden {
				if layer.Neurons < 1 {
					return nil, errf(InvalidHyperparameter,
						"hidden layer at position %d needs at least "+
							"1 neuron, got %d", i, layer.Neurons)
				}
				if layer.Activation == "" {
					layer.Activation = "linear"
				}
				if !Activations[layer.Activation] {
					return nil, errf(UnknownActivation,
						"unknown activation %q at position %d",
						layer.Activation, i)
				}
				break
			}

			if err := canonOutput(layer, ds, i); err != nil {
				return nil, err
			}

		case Dropout:
			if layer.Rate < 0 || layer.Rate >= 1 {
				return nil, errf(InvalidHyperparameter,
					"dropout rate at position %d must be in [0, 1), "+
						"got %v", i, layer.Rate)
			}
			layer.Neurons = 0
			layer.Activation = ""

		case Conv2D:
			if !ds.Image() {
				return nil, errf(SpatialOnNonImageDataset,
					"conv2d at position %d requires an image "+
						"dataset, but %v is tabular", i, ds.ID)
			}
			if !spatial {
				return nil, errf(SpatialOnNonImageDataset,
					"conv2d at position %d follows a flattened shape", i)
			}
			if layer.Filters < 1 {
				return nil, errf(InvalidHyperparameter,
					"conv2d at position %d needs at least 1 filter, "+
						"got %d", i, layer.Filters)
			}
			side := intutils.Min(height, width)
			if layer.Kernel < 1 || layer.Kernel > side {
				return nil, errf(InvalidHyperparameter,
					"conv2d kernel_size at position %d must be in "+
						"[1, %d], got %d", i, side, layer.Kernel)
			}
			if layer.Activation == "" {
				layer.Activation = "linear"
			}
			if !Activations[layer.Activation] {
				return nil, errf(UnknownActivation,
					"unknown activation %q at position %d",
					layer.Activation, i)
			}
			height -= layer.Kernel - 1
			width -= layer.Kernel - 1
			sawSpatialOp = true

		case MaxPool2D:
			if !ds.Image() {
				return nil, errf(SpatialOnNonImageDataset,
					"maxpool2d at position %d requires an image "+
						"dataset, but %v is tabular", i, ds.ID)
			}
			if !spatial {
				return nil, errf(SpatialOnNonImageDataset,
					"maxpool2d at position %d follows a flattened "+
						"shape", i)
			}
			side := intutils.Min(height, width)
			if layer.Pool < 1 || layer.Pool > side {
				return nil, errf(InvalidHyperparameter,
					"maxpool2d pool_size at position %d must be in "+
						"[1, %d], got %d", i, side, layer.Pool)
			}
			layer.Activation = ""
			height /= layer.Pool
			width /= layer.Pool
			sawSpatialOp = true

		case Flatten:
			if !spatial {
				return nil, errf(SpatialOnNonImageDataset,
					"flatten at position %d has no spatial shape to "+
						"collapse", i)
			}
			spatial = false
		}
	}

	return canon, nil
}

// canonOutput validates the output layer in place, filling an
// omitted width from the dataset.
func canonOutput(layer *Layer, ds dataset.Spec, pos int) error {
	want := 1
	if ds.Task == dataset.Classification {
		want = ds.NumClasses
	}

	if layer.Neurons == 0 {
		layer.Neurons = want
	} else if layer.Neurons != want {
		return errf(OutputArityMismatch, "output layer at position "+
			"%d has %d neurons, but %v needs %d", pos, layer.Neurons,
			ds.ID, want)
	}

	switch ds.Task {
	case dataset.Classification:
		switch layer.Activation {
		case "":
			layer.Activation = "softmax"
		case "softmax", "linear":
		default:
			if !Activations[layer.Activation] {
				return errf(UnknownActivation, "unknown activation "+
					"%q at position %d", layer.Activation, pos)
			}
			return errf(UnknownActivation, "output activation %q is "+
				"not valid for classification, want softmax or "+
				"linear", layer.Activation)
		}
	default:
		switch layer.Activation {
		case "":
			layer.Activation = "linear"
		case "linear":
		default:
			if !Activations[layer.Activation] {
				return errf(UnknownActivation, "unknown activation "+
					"%q at position %d", layer.Activation, pos)
			}
			return errf(UnknownActivation, "output activation %q is "+
				"not valid for regression, want linear",
				layer.Activation)
		}
	}
	return nil
}
