// Package provider talks to the embedding and completion services.
package provider

import (
	"context"
	"fmt"

	"github.com/hyperjump/kioku/internal/config"
	"go.uber.org/zap"
)

// Embedder turns text into a fixed-length vector. Every call is one outbound request;
// results are not cached and callers must not assume two calls return the same vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer sends one prompt and returns the generated text unmodified.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider is a service that can both embed and complete.
type Provider interface {
	Embedder
	Completer
	// Name identifies the backend in status output, e.g. "ollama".
	Name() string
}

// Option configures a provider built by New.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets a logger for debug output (requests, response sizes).
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds the provider selected by cfg.Kind.
func New(cfg config.ProviderConfig, opts ...Option) (Provider, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	switch cfg.Kind {
	case config.ProviderOllama, "":
		return NewOllamaProvider(cfg, o.logger), nil
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg, o.logger)
	case config.ProviderMock:
		return NewMockProvider(384), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}
