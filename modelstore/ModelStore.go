// Package modelstore keeps validated model configurations in memory
// and ships the prebuilt template catalog. Templates are registered
// as model configurations at construction, so a template id can be
// trained directly.
package modelstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samuelfneumann/gotrain/arch"
	"github.com/samuelfneumann/gotrain/dataset"
)

// Lookup errors mapped to 404 by the HTTP layer.
var (
	ErrModelNotFound    = errors.New("no such model")
	ErrTemplateNotFound = errors.New("no such template")
)

// PersistFunc mirrors a saved configuration into external storage.
type PersistFunc func(Config) error

// Config is one stored model definition. Layers are always held in
// canonical validated form.
type Config struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	DatasetID   string       `json:"dataset_id"`
	Description string       `json:"description,omitempty"`
	Layers      []arch.Layer `json:"layers"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CreateRequest is the payload for saving a new model
// configuration.
type CreateRequest struct {
	Name        string       `json:"name"`
	DatasetID   string       `json:"dataset_id"`
	Description string       `json:"description"`
	Layers      []arch.Layer `json:"layers"`
}

// Store owns the process's model configurations.
type Store struct {
	mu       sync.RWMutex
	models   map[string]Config
	catalog  []Template
	datasets *dataset.Registry
	persist  PersistFunc
	logger   *zap.Logger
}

// New builds a store over the dataset registry and seeds the
// template catalog. persist may be nil when no external storage is
// configured.
func New(datasets *dataset.Registry, persist PersistFunc,
	logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		models:   make(map[string]Config),
		datasets: datasets,
		persist:  persist,
		logger:   logger,
	}
	s.seedTemplates()
	return s
}

// Create validates the architecture against its dataset and stores
// the canonical form under a fresh id.
func (s *Store) Create(req CreateRequest) (Config, error) {
	provider, err := s.datasets.Get(req.DatasetID)
	if err != nil {
		return Config{}, err
	}
	ds := provider.Spec()

	canon, err := arch.Validate(req.Layers, ds)
	if err != nil {
		return Config{}, err
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("custom %v model", ds.ID)
	}

	cfg := Config{
		ID:          uuid.NewString(),
		Name:        name,
		DatasetID:   req.DatasetID,
		Description: req.Description,
		Layers:      canon,
		Status:      "created",
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.models[cfg.ID] = cfg
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist(cfg); err != nil {
			s.logger.Warn("model config write failed",
				zap.String("model_id", cfg.ID), zap.Error(err))
		}
	}

	s.logger.Info("model config created",
		zap.String("model_id", cfg.ID),
		zap.String("dataset_id", cfg.DatasetID))
	return cfg, nil
}

// Restore re-registers configurations loaded from external storage,
// typically at startup. Entries that collide with an existing id or
// no longer validate are skipped. Returns how many were restored.
func (s *Store) Restore(configs []Config) int {
	restored := 0
	for _, cfg := range configs {
		provider, err := s.datasets.Get(cfg.DatasetID)
		if err != nil {
			s.logger.Warn("restored model skipped, dataset missing",
				zap.String("model_id", cfg.ID), zap.Error(err))
			continue
		}
		canon, err := arch.Validate(cfg.Layers, provider.Spec())
		if err != nil {
			s.logger.Warn("restored model skipped, invalid layers",
				zap.String("model_id", cfg.ID), zap.Error(err))
			continue
		}
		cfg.Layers = canon

		s.mu.Lock()
		if _, ok := s.models[cfg.ID]; ok {
			s.mu.Unlock()
			continue
		}
		s.models[cfg.ID] = cfg
		s.mu.Unlock()
		restored++
	}
	return restored
}

// Get returns a stored configuration by id.
func (s *Store) Get(id string) (Config, error) {
	s.mu.RLock()
	cfg, ok := s.models[id]
	s.mu.RUnlock()

	if !ok {
		return Config{}, fmt.Errorf("%w: %v", ErrModelNotFound, id)
	}
	return cfg, nil
}
