package tts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Manager tries providers in order until one synthesizes successfully.
type Manager struct {
	providers []Synthesizer
	logger    *zap.Logger
}

// NewManager creates a manager over providers, in priority order
func NewManager(providers []Synthesizer, logger *zap.Logger) *Manager {
	return &Manager{
		providers: providers,
		logger:    logger,
	}
}

// IsAvailable reports whether any provider is configured.
func (m *Manager) IsAvailable() bool {
	return m.GetAvailableProvider() != nil
}

// GetAvailableProvider returns the first available provider
func (m *Manager) GetAvailableProvider() Synthesizer {
	for _, provider := range m.providers {
		if provider.IsAvailable() {
			return provider
		}
	}
	return nil
}

// Providers returns the names of all available providers in order.
func (m *Manager) Providers() []string {
	var names []string
	for _, p := range m.providers {
		if p.IsAvailable() {
			names = append(names, p.Name())
		}
	}
	return names
}

// Synthesize runs req against each available provider until one succeeds.
// Empty text and caller cancellation are not retried on the next provider.
func (m *Manager) Synthesize(ctx context.Context, req *Request) (*Audio, error) {
	if req.Text == "" {
		return nil, ErrEmptyText
	}

	var lastErr error
	tried := 0
	for _, provider := range m.providers {
		if !provider.IsAvailable() {
			continue
		}
		tried++

		audio, err := provider.Synthesize(ctx, req)
		if err == nil {
			m.logger.Debug("Synthesized speech",
				zap.String("provider", provider.Name()),
				zap.Int("bytes", len(audio.Data)),
			)
			return audio, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrEmptyText) {
			return nil, err
		}

		lastErr = err
		m.logger.Warn("TTS provider failed, trying next",
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
	}

	if tried == 0 {
		return nil, ErrNoProvider
	}
	return nil, fmt.Errorf("all TTS providers failed. Last error: %w", lastErr)
}
