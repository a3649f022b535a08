package provider

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/vector"
)

// MockProvider is a deterministic provider for tests and offline use. It returns a
// fixed-dimension vector derived from the text hash so that the same text always gets
// the same embedding, and echoes a summary of the prompt as its completion.
type MockProvider struct {
	dimensions int
}

// NewMockProvider returns a provider that produces deterministic embeddings of the given dimensions.
func NewMockProvider(dimensions int) *MockProvider {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockProvider{dimensions: dimensions}
}

// Name returns "mock".
func (m *MockProvider) Name() string { return config.ProviderMock }

// Embed returns a deterministic unit-length embedding based on the text hash.
func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.ProviderError("mock embed", err)
	}
	h := hashString(text)
	emb := make([]float32, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*uint64(i+1)))*0.1 + 0.01)
	}
	vector.Normalize(emb)
	return emb, nil
}

// Complete returns a fixed answer that records the prompt size.
func (m *MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", models.GenerationError("mock complete", err)
	}
	return fmt.Sprintf("mock answer (%d prompt characters)", len(prompt)), nil
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64() % 1000003
}

// StaticProvider returns preconfigured vectors and answers. It records every prompt it
// receives so tests can assert on the exact text sent to the completion service.
type StaticProvider struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	answer     string
	embedErr   error
	completErr error
	prompts    []string
	embedded   []string
}

// NewStaticProvider returns a provider that maps text to the given vectors and always answers answer.
func NewStaticProvider(vectors map[string][]float32, answer string) *StaticProvider {
	if vectors == nil {
		vectors = make(map[string][]float32)
	}
	return &StaticProvider{vectors: vectors, answer: answer}
}

// Name returns "static".
func (s *StaticProvider) Name() string { return "static" }

// SetVector maps text to vec for subsequent Embed calls.
func (s *StaticProvider) SetVector(text string, vec []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[text] = vec
}

// FailEmbed makes subsequent Embed calls fail with err (nil restores success).
func (s *StaticProvider) FailEmbed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embedErr = err
}

// FailComplete makes subsequent Complete calls fail with err (nil restores success).
func (s *StaticProvider) FailComplete(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completErr = err
}

// Embed returns the vector registered for text.
func (s *StaticProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embedded = append(s.embedded, text)
	if s.embedErr != nil {
		return nil, models.ProviderError("static embed", s.embedErr)
	}
	vec, ok := s.vectors[text]
	if !ok {
		return nil, models.ProviderError("static embed", fmt.Errorf("no vector for %q", text))
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}

// Complete records prompt and returns the configured answer.
func (s *StaticProvider) Complete(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.completErr != nil {
		return "", models.GenerationError("static complete", s.completErr)
	}
	if s.answer == "" {
		return "", models.GenerationError("static complete", errors.New("empty completion"))
	}
	return s.answer, nil
}

// Prompts returns the prompts received so far.
func (s *StaticProvider) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Embedded returns the texts passed to Embed so far.
func (s *StaticProvider) Embedded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.embedded...)
}
