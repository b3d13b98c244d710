package falaichat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Manager implements ImageGenerator by routing each request to the provider
// registered for its model. Providers self-describe via Models(), so wiring
// a new backend is a single Register call.
type Manager struct {
	providers map[Model]ImageGenerator
	modelInfo map[Model]*ModelInfo

	// Logger for structured logging around every provider call.
	logger *slog.Logger

	mu sync.RWMutex
}

var _ ImageGenerator = (*Manager)(nil)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets a structured logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager serving every model of the given providers.
//
// Example:
//
//	gen, err := fal.New(&falaichat.ProviderConfig{APIKey: key})
//	if err != nil {
//	    return err
//	}
//	manager := falaichat.NewManager([]falaichat.ImageGenerator{gen},
//	    falaichat.WithLogger(slog.Default()),
//	)
func NewManager(providers []ImageGenerator, opts ...ManagerOption) *Manager {
	m := &Manager{
		providers: make(map[Model]ImageGenerator),
		modelInfo: make(map[Model]*ModelInfo),
		logger:    slog.Default(),
	}

	for _, provider := range providers {
		m.Register(provider)
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register adds a provider for every model it serves. A later registration
// for the same model replaces the earlier one.
func (m *Manager) Register(provider ImageGenerator) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	models := provider.Models()
	for i := range models {
		info := &models[i]
		m.providers[info.Name] = provider
		m.modelInfo[info.Name] = info
	}
	return m
}

// Generate routes the request to the provider serving its model.
func (m *Manager) Generate(ctx context.Context, req *ProviderRequest) (*GeneratedImage, error) {
	m.mu.RLock()
	provider, ok := m.providers[req.Model]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, req.Model)
	}

	start := time.Now()
	m.logger.Debug("starting image generation",
		"model", req.Model.String(),
		"prompt_length", len(req.Prompt),
		"input_images", len(req.ImageURLs),
	)

	result, err := provider.Generate(ctx, req)
	duration := time.Since(start)

	if err != nil {
		m.logger.Error("generation failed",
			"model", req.Model.String(),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	m.logger.Info("generation completed",
		"model", req.Model.String(),
		"duration_ms", duration.Milliseconds(),
		"media_type", result.MediaType,
		"bytes", len(result.Data),
	)

	return result, nil
}

// Models returns all registered model definitions.
func (m *Manager) Models() []ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make([]ModelInfo, 0, len(m.modelInfo))
	for _, info := range m.modelInfo {
		models = append(models, *info)
	}
	return models
}

// GetModelInfo returns model information for a specific model.
func (m *Manager) GetModelInfo(model Model) (*ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.modelInfo[model]
	return info, ok
}

// Close releases all provider resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	closed := make(map[ImageGenerator]bool)
	var errs []error
	for _, provider := range m.providers {
		if closed[provider] {
			continue
		}
		closed[provider] = true
		if err := provider.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.providers = make(map[Model]ImageGenerator)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
