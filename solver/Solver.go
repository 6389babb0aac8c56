// Package solver implements gradient descent update rules, wrapped
// so that they can be JSON serialized into configuration files.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	SGD     Type = "SGD"
	RMSProp Type = "RMSProp"
	AdaGrad Type = "AdaGrad"
)

// ValueGrad is the view a solver has of one trainable parameter: the
// current values and the gradient of the loss with respect to them.
// Both slices have the same length, and updates write through to the
// parameter's backing storage.
type ValueGrad interface {
	Value() []float64
	Grad() []float64
}

// Stepper applies one gradient descent update to a list of
// parameters. Solver state, such as Adam's moment estimates, is
// keyed by list position, so every call must pass the same
// parameters in the same order.
type Stepper interface {
	Step(params []ValueGrad) error
}

// Solver wraps Steppers so that they can be JSON marshalled and
// unmarshalled.
type Solver struct {
	Stepper `json:"-"`
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	solver := Solver{Type: t, Config: c}
	solver.Stepper = solver.Config.Create()

	return &solver, nil
}

// New returns a solver by its lowercase wire name with default
// hyperparameters and the given step size.
func New(name string, stepSize float64) (*Solver, error) {
	switch strings.ToLower(name) {
	case "adam":
		return NewDefaultAdam(stepSize)
	case "sgd":
		return NewSGD(stepSize, -1)
	case "rmsprop":
		return NewDefaultRMSProp(stepSize)
	case "adagrad":
		return NewDefaultAdaGrad(stepSize)
	default:
		return nil, fmt.Errorf("new: unknown solver %q", name)
	}
}

// Known returns whether name is the wire name of an available solver.
func Known(name string) bool {
	switch strings.ToLower(name) {
	case "adam", "sgd", "rmsprop", "adagrad":
		return true
	default:
		return false
	}
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(Adam):    reflect.TypeOf(AdamConfig{}),
			string(SGD):     reflect.TypeOf(SGDConfig{}),
			string(RMSProp): reflect.TypeOf(RMSPropConfig{}),
			string(AdaGrad): reflect.TypeOf(AdaGradConfig{}),
		})
	if err != nil {
		return err
	}

	s.Type = typeName
	s.Config = config
	s.Stepper = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: no %v field",
			typeJsonField)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: unknown type %v",
			typeName)
	}
	value := reflect.New(ty).Interface().(Config)

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, &value); err != nil {
		return nil, "", err
	}
	concreteValue := reflect.ValueOf(value).Elem().Interface().(Config)

	return concreteValue, Type(typeName), nil
}

// Config implements a Stepper configuration and can be used to
// create the Steppers they describe.
type Config interface {
	Create() Stepper

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool
}

// newState allocates per-parameter solver state shaped like params.
func newState(params []ValueGrad) [][]float64 {
	state := make([][]float64, len(params))
	for i, p := range params {
		state[i] = make([]float64, len(p.Value()))
	}
	return state
}

// checkParams verifies that params still matches the shape the solver
// state was allocated for.
func checkParams(state [][]float64, params []ValueGrad) error {
	if len(params) != len(state) {
		return fmt.Errorf("step: expected %d parameters, got %d",
			len(state), len(params))
	}
	for i, p := range params {
		if len(p.Value()) != len(state[i]) {
			return fmt.Errorf("step: parameter %d has %d values, "+
				"expected %d", i, len(p.Value()), len(state[i]))
		}
		if len(p.Grad()) != len(p.Value()) {
			return fmt.Errorf("step: parameter %d has %d gradients "+
				"for %d values", i, len(p.Grad()), len(p.Value()))
		}
	}
	return nil
}
