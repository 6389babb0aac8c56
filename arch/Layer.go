// Package arch describes declarative neural network architectures
// and validates them against the dataset they will be trained on.
//
// An architecture is an ordered list of Layers, normally decoded
// from the JSON body of a training or model creation request.
// Validate canonicalizes a layer list into the exact form the
// network compiler consumes, rejecting anything structurally or
// numerically unsound with a ValidationError.
package arch

// Kind enumerates the supported layer types.
type Kind string

const (
	Input     Kind = "input"
	Hidden    Kind = "hidden"
	Output    Kind = "output"
	Dropout   Kind = "dropout"
	Conv2D    Kind = "conv2d"
	MaxPool2D Kind = "maxpool2d"
	Flatten   Kind = "flatten"
)

// Layer describes one layer of an architecture as supplied by a
// client. Which fields are meaningful depends on Kind: Neurons and
// Activation describe dense layers, Rate describes dropout, and
// Filters, Kernel, and Pool describe the spatial layers.
type Layer struct {
	Kind       Kind    `json:"type"`
	Position   int     `json:"position"`
	Neurons    int     `json:"neurons,omitempty"`
	Activation string  `json:"activation,omitempty"`
	Rate       float64 `json:"rate,omitempty"`
	Filters    int     `json:"filters,omitempty"`
	Kernel     int     `json:"kernel_size,omitempty"`
	Pool       int     `json:"pool_size,omitempty"`
}

// Activations is the closed set of activation names an architecture
// may reference.
var Activations = map[string]bool{
	"relu":       true,
	"sigmoid":    true,
	"tanh":       true,
	"softmax":    true,
	"linear":     true,
	"elu":        true,
	"selu":       true,
	"softplus":   true,
	"gelu":       true,
	"leaky_relu": true,
}
