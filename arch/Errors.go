package arch

import "fmt"

// ErrorKind names the reason an architecture was rejected.
type ErrorKind string

const (
	EmptyArchitecture               ErrorKind = "EmptyArchitecture"
	MissingInputOrOutput            ErrorKind = "MissingInputOrOutput"
	PositionGap                     ErrorKind = "PositionGap"
	ActivationOnInput               ErrorKind = "ActivationOnInput"
	SpatialOnNonImageDataset        ErrorKind = "SpatialOnNonImageDataset"
	DenseAfterSpatialWithoutFlatten ErrorKind = "DenseAfterSpatialWithoutFlatten"
	OutputArityMismatch             ErrorKind = "OutputArityMismatch"
	UnknownActivation               ErrorKind = "UnknownActivation"
	UnknownLayerKind                ErrorKind = "UnknownLayerKind"
	InvalidHyperparameter           ErrorKind = "InvalidHyperparameter"
)

// ValidationError describes why an architecture cannot be compiled
// for its dataset. The Kind is stable and machine-readable while the
// Detail is free-form.
type ValidationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Detail)
}

// errf returns a ValidationError with a formatted detail message.
func errf(kind ErrorKind, format string, args ...interface{}) error {
	return &ValidationError{
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	}
}

// IsValidationError returns whether err is a ValidationError.
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}
