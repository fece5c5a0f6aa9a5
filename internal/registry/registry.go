// Package registry holds the configurable list of selectable provider/model
// descriptors and the provider discovery hooks that propose new ones.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"anychat-backend/internal/llm"
	"anychat-backend/internal/models"
)

// ConflictError is returned by Add when the (provider, model) pair already
// exists.
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// NotFoundError is returned by Remove when the pair is not registered.
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// Discoverer lists a provider's live model catalog.
type Discoverer interface {
	ListModels(ctx context.Context) ([]llm.ModelInfo, error)
}

// configFile is the on-disk shape of the registry backing file.
type configFile struct {
	Models []models.ModelDescriptor `yaml:"models"`
}

// defaultModels seeds a fresh registry when no backing file exists yet.
var defaultModels = []models.ModelDescriptor{
	{Provider: "gemini", Model: "gemini-2.5-flash-lite", Display: "Gemini 2.5 Flash Lite", ToolsSupport: true},
	{Provider: "anthropic", Model: "claude-3-5-haiku-20241022", Display: "Claude 3.5 Haiku", ToolsSupport: true},
	{Provider: "anthropic", Model: "claude-3-5-sonnet-20241022", Display: "Claude 3.5 Sonnet", ToolsSupport: true},
}

// Registry is the in-memory model list backed by a YAML config file. All
// mutations rewrite the file atomically and no reader ever observes a
// partially applied reload.
type Registry struct {
	mu          sync.RWMutex
	path        string
	models      []models.ModelDescriptor
	discoverers map[string]Discoverer
	logger      zerolog.Logger
}

// Open loads the registry from path. A missing file is seeded with the
// default model list and written out.
func Open(path string, logger zerolog.Logger) (*Registry, error) {
	r := &Registry{
		path:        path,
		discoverers: make(map[string]Discoverer),
		logger:      logger,
	}

	descriptors, err := readConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		descriptors = append([]models.ModelDescriptor(nil), defaultModels...)
		if err := writeConfig(path, descriptors); err != nil {
			return nil, err
		}
		logger.Info().Str("path", path).Msg("seeded model registry with defaults")
	}

	r.models = descriptors
	return r, nil
}

// RegisterDiscoverer attaches a live-catalog source for a provider.
func (r *Registry) RegisterDiscoverer(provider string, d Discoverer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discoverers[provider] = d
}

// List returns the registered descriptors in configuration order.
func (r *Registry) List() []models.ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.ModelDescriptor(nil), r.models...)
}

// Get looks up a descriptor by its (provider, model) key.
func (r *Registry) Get(provider, model string) (models.ModelDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.models {
		if d.Provider == provider && d.Model == model {
			return d, true
		}
	}
	return models.ModelDescriptor{}, false
}

// Add appends a descriptor and persists the list. Duplicate (provider, model)
// pairs fail with ConflictError and leave the list unchanged.
func (r *Registry) Add(desc models.ModelDescriptor) error {
	if desc.Provider == "" || desc.Model == "" {
		return fmt.Errorf("provider and model are required")
	}
	if desc.Display == "" {
		desc.Display = desc.Provider + " " + desc.Model
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.models {
		if d.Provider == desc.Provider && d.Model == desc.Model {
			return &ConflictError{Message: fmt.Sprintf("model %s already configured", desc.Key())}
		}
	}

	updated := append(append([]models.ModelDescriptor(nil), r.models...), desc)
	if err := writeConfig(r.path, updated); err != nil {
		return err
	}
	r.models = updated

	r.logger.Info().Str("model", desc.Key()).Msg("model added to registry")
	return nil
}

// Remove deletes a descriptor and persists the list.
func (r *Registry) Remove(provider, model string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, d := range r.models {
		if d.Provider == provider && d.Model == model {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Message: fmt.Sprintf("model %s/%s is not configured", provider, model)}
	}

	updated := append(append([]models.ModelDescriptor(nil), r.models[:idx]...), r.models[idx+1:]...)
	if err := writeConfig(r.path, updated); err != nil {
		return err
	}
	r.models = updated

	r.logger.Info().Str("provider", provider).Str("model", model).Msg("model removed from registry")
	return nil
}

// Reload re-reads the backing file and replaces the in-memory list in one
// step. The previous list stays in effect if the read fails.
func (r *Registry) Reload() ([]models.ModelDescriptor, error) {
	descriptors, err := readConfig(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload model config: %w", err)
	}

	r.mu.Lock()
	r.models = descriptors
	r.mu.Unlock()

	r.logger.Info().Int("count", len(descriptors)).Msg("model registry reloaded")
	return append([]models.ModelDescriptor(nil), descriptors...), nil
}

// Discover queries a provider's live catalog and returns candidates, each
// flagged when the registry already has it.
func (r *Registry) Discover(ctx context.Context, provider string) ([]models.DiscoveredModel, error) {
	r.mu.RLock()
	d, ok := r.discoverers[provider]
	r.mu.RUnlock()
	if !ok {
		if llm.KnownProvider(provider) {
			return nil, llm.NewUnsupportedError(fmt.Sprintf("%s model discovery is not supported", provider))
		}
		return nil, llm.NewNotFoundError(fmt.Sprintf("unsupported provider: %s", provider))
	}

	infos, err := d.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.DiscoveredModel, 0, len(infos))
	for _, info := range infos {
		_, registered := r.Get(info.Provider, info.Model)
		candidates = append(candidates, models.DiscoveredModel{
			ModelDescriptor: models.ModelDescriptor{
				Provider:     info.Provider,
				Model:        info.Model,
				Display:      info.Display,
				ToolsSupport: info.ToolsSupport,
			},
			Registered: registered,
			Metadata:   info.Metadata,
		})
	}
	return candidates, nil
}

func readConfig(path string) ([]models.ModelDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid model config %s: %w", path, err)
	}
	return cfg.Models, nil
}

// writeConfig persists the list via a temp file and rename so readers never
// see a torn file.
func writeConfig(path string, descriptors []models.ModelDescriptor) error {
	data, err := yaml.Marshal(configFile{Models: descriptors})
	if err != nil {
		return fmt.Errorf("failed to marshal model config: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".models-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
