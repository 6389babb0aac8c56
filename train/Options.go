package train

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/gotrain/dataset"
	"github.com/samuelfneumann/gotrain/solver"
	"github.com/samuelfneumann/gotrain/utils/floatutils"
)

// HyperparameterError reports a training option that failed
// validation.
type HyperparameterError struct {
	Field  string
	Reason string
}

func (e *HyperparameterError) Error() string {
	return fmt.Sprintf("invalid %v: %v", e.Field, e.Reason)
}

// Options carries the per-request training overrides. Zero values
// defer to the dataset's recommended hyperparameters, so a request
// that sets nothing trains with the recommendation verbatim.
type Options struct {
	Epochs       int     `json:"epochs,omitempty"`
	LearningRate float64 `json:"learning_rate,omitempty"`
	BatchSize    int     `json:"batch_size,omitempty"`
	Optimizer    string  `json:"optimizer,omitempty"`
	MaxSamples   int     `json:"max_samples,omitempty"`
}

// Resolve merges the overrides onto a dataset's recommended
// hyperparameters, validating each override it applies.
func (o Options) Resolve(
	rec dataset.Hyperparameters) (dataset.Hyperparameters, error) {
	out := rec

	if o.Epochs != 0 {
		if o.Epochs < 1 {
			return out, &HyperparameterError{
				Field:  "epochs",
				Reason: fmt.Sprintf("must be at least 1, got %d", o.Epochs),
			}
		}
		out.Epochs = o.Epochs
	}

	if o.LearningRate != 0 {
		if o.LearningRate <= 0 || !floatutils.Finite(o.LearningRate) {
			return out, &HyperparameterError{
				Field: "learning_rate",
				Reason: fmt.Sprintf("must be a positive finite number, "+
					"got %v", o.LearningRate),
			}
		}
		out.LearningRate = o.LearningRate
	}

	if o.BatchSize != 0 {
		if o.BatchSize < 1 {
			return out, &HyperparameterError{
				Field: "batch_size",
				Reason: fmt.Sprintf("must be at least 1, got %d",
					o.BatchSize),
			}
		}
		out.BatchSize = o.BatchSize
	}

	if o.Optimizer != "" {
		if !solver.Known(o.Optimizer) {
			return out, &HyperparameterError{
				Field: "optimizer",
				Reason: fmt.Sprintf("unknown optimizer %q", o.Optimizer),
			}
		}
		out.Optimizer = strings.ToLower(o.Optimizer)
	}

	if o.MaxSamples < 0 {
		return out, &HyperparameterError{
			Field: "max_samples",
			Reason: fmt.Sprintf("must not be negative, got %d",
				o.MaxSamples),
		}
	}

	return out, nil
}
