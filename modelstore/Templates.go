package modelstore

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/samuelfneumann/gotrain/arch"
)

// Template is a prebuilt architecture for one dataset.
type Template struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	DatasetID   string       `json:"dataset_id"`
	Description string       `json:"description,omitempty"`
	Layers      []arch.Layer `json:"layers"`
}

// Templates returns the catalog, filtered to one dataset when
// datasetID is non-empty. The catalog order is fixed.
func (s *Store) Templates(datasetID string) []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Template, 0, len(s.catalog))
	for _, tpl := range s.catalog {
		if datasetID == "" || tpl.DatasetID == datasetID {
			out = append(out, tpl)
		}
	}
	return out
}

// Template returns one catalog entry by id.
func (s *Store) Template(id string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tpl := range s.catalog {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return Template{}, fmt.Errorf("%w: %v", ErrTemplateNotFound, id)
}

// seedTemplates validates the builtin catalog and registers every
// template as a trainable model configuration.
func (s *Store) seedTemplates() {
	now := time.Now().UTC()

	for _, tpl := range builtinTemplates() {
		provider, err := s.datasets.Get(tpl.DatasetID)
		if err != nil {
			s.logger.Warn("template skipped, dataset missing",
				zap.String("template_id", tpl.ID), zap.Error(err))
			continue
		}

		canon, err := arch.Validate(tpl.Layers, provider.Spec())
		if err != nil {
			s.logger.Warn("template skipped, invalid layers",
				zap.String("template_id", tpl.ID), zap.Error(err))
			continue
		}
		tpl.Layers = canon

		s.mu.Lock()
		s.catalog = append(s.catalog, tpl)
		s.models[tpl.ID] = Config{
			ID:          tpl.ID,
			Name:        tpl.Name,
			DatasetID:   tpl.DatasetID,
			Description: tpl.Description,
			Layers:      canon,
			Status:      "template",
			CreatedAt:   now,
		}
		s.mu.Unlock()
	}
}

// builtinTemplates enumerates the shipped catalog: one small and one
// deeper architecture per dataset, plus a convolutional variant for
// the image dataset.
func builtinTemplates() []Template {
	return []Template{
		{
			ID:          "iris_simple",
			Name:        "Iris quick classifier",
			DatasetID:   "iris",
			Description: "One hidden layer, trains in seconds.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Hidden, Position: 1, Neurons: 16,
					Activation: "relu"},
				{Kind: arch.Output, Position: 2, Neurons: 3,
					Activation: "softmax"},
			},
		},
		{
			ID:          "iris_deep",
			Name:        "Iris deep classifier",
			DatasetID:   "iris",
			Description: "Two hidden layers with dropout.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Hidden, Position: 1, Neurons: 32,
					Activation: "relu"},
				{Kind: arch.Dropout, Position: 2, Rate: 0.2},
				{Kind: arch.Hidden, Position: 3, Neurons: 16,
					Activation: "relu"},
				{Kind: arch.Output, Position: 4, Neurons: 3,
					Activation: "softmax"},
			},
		},
		{
			ID:          "wine_simple",
			Name:        "Wine quality classifier",
			DatasetID:   "wine_quality",
			Description: "One hidden layer over the chemistry features.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Hidden, Position: 1, Neurons: 32,
					Activation: "relu"},
				{Kind: arch.Output, Position: 2, Neurons: 6,
					Activation: "softmax"},
			},
		},
		{
			ID:          "wine_deep",
			Name:        "Wine quality deep classifier",
			DatasetID:   "wine_quality",
			Description: "Wider stack with dropout regularization.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Hidden, Position: 1, Neurons: 64,
					Activation: "relu"},
				{Kind: arch.Dropout, Position: 2, Rate: 0.3},
				{Kind: arch.Hidden, Position: 3, Neurons: 32,
					Activation: "relu"},
				{Kind: arch.Output, Position: 4, Neurons: 6,
					Activation: "softmax"},
			},
		},
		{
			ID:          "california_simple",
			Name:        "Housing value regressor",
			DatasetID:   "california_housing",
			Description: "One hidden layer, linear output.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Hidden, Position: 1, Neurons: 32,
					Activation: "relu"},
				{Kind: arch.Output, Position: 2, Neurons: 1},
			},
		},
		{
			ID:          "california_deep",
			Name:        "Housing value deep regressor",
			DatasetID:   "california_housing",
			Description: "Two hidden layers with dropout.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Hidden, Position: 1, Neurons: 64,
					Activation: "relu"},
				{Kind: arch.Hidden, Position: 2, Neurons: 32,
					Activation: "relu"},
				{Kind: arch.Dropout, Position: 3, Rate: 0.2},
				{Kind: arch.Output, Position: 4, Neurons: 1},
			},
		},
		{
			ID:          "synthetic_simple",
			Name:        "XOR separator",
			DatasetID:   "synthetic",
			Description: "Minimal tanh network for the XOR plane.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Hidden, Position: 1, Neurons: 8,
					Activation: "tanh"},
				{Kind: arch.Output, Position: 2, Neurons: 2,
					Activation: "softmax"},
			},
		},
		{
			ID:          "spiral_deep",
			Name:        "Spiral classifier",
			DatasetID:   "spiral",
			Description: "Two tanh layers to bend around the arms.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Hidden, Position: 1, Neurons: 32,
					Activation: "tanh"},
				{Kind: arch.Hidden, Position: 2, Neurons: 16,
					Activation: "tanh"},
				{Kind: arch.Output, Position: 3, Neurons: 2,
					Activation: "softmax"},
			},
		},
		{
			ID:          "shapes_mlp",
			Name:        "Glyph dense classifier",
			DatasetID:   "shapes",
			Description: "Flattens the 8x8 glyphs into a dense stack.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Flatten, Position: 1},
				{Kind: arch.Hidden, Position: 2, Neurons: 32,
					Activation: "relu"},
				{Kind: arch.Output, Position: 3, Neurons: 4,
					Activation: "softmax"},
			},
		},
		{
			ID:          "shapes_conv",
			Name:        "Glyph convolutional classifier",
			DatasetID:   "shapes",
			Description: "Conv and pooling front end over the glyphs.",
			Layers: []arch.Layer{
				{Kind: arch.Input, Position: 0},
				{Kind: arch.Conv2D, Position: 1, Filters: 8, Kernel: 3,
					Activation: "relu"},
				{Kind: arch.MaxPool2D, Position: 2, Pool: 2},
				{Kind: arch.Flatten, Position: 3},
				{Kind: arch.Hidden, Position: 4, Neurons: 32,
					Activation: "relu"},
				{Kind: arch.Dropout, Position: 5, Rate: 0.25},
				{Kind: arch.Output, Position: 6, Neurons: 4,
					Activation: "softmax"},
			},
		},
	}
}
