package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"go.uber.org/zap"
)

// OllamaProvider implements Provider using the Ollama REST API.
type OllamaProvider struct {
	baseURL         string
	embeddingModel  string
	completionModel string
	apiKey          string
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewOllamaProvider creates an Ollama-backed provider. A nil logger disables logging.
func NewOllamaProvider(cfg config.ProviderConfig, logger *zap.Logger) *OllamaProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultOllamaURL
	}
	return &OllamaProvider{
		baseURL:         strings.TrimRight(baseURL, "/"),
		embeddingModel:  cfg.EmbeddingModel,
		completionModel: cfg.CompletionModel,
		apiKey:          cfg.APIKey,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		logger:          logger,
	}
}

// Name returns "ollama".
func (o *OllamaProvider) Name() string { return config.ProviderOllama }

// Embed generates a vector embedding for the given text.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model": o.embeddingModel,
		"input": text,
	}

	body, err := o.post(ctx, "/api/embed", payload)
	if err != nil {
		return nil, models.ProviderError("ollama embed", err)
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, models.ProviderError("ollama embed decode", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, models.ProviderError("ollama embed", errors.New("empty response"))
	}

	o.logger.Debug("embedded text",
		zap.String("model", o.embeddingModel),
		zap.Int("chars", len(text)),
		zap.Int("dimensions", len(resp.Embeddings[0])))
	return resp.Embeddings[0], nil
}

// Complete sends the prompt to /api/generate without streaming and returns the response text.
func (o *OllamaProvider) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":  o.completionModel,
		"prompt": prompt,
		"stream": false,
	}

	body, err := o.post(ctx, "/api/generate", payload)
	if err != nil {
		return "", models.GenerationError("ollama generate", err)
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", models.GenerationError("ollama generate decode", err)
	}
	if strings.TrimSpace(resp.Response) == "" {
		return "", models.GenerationError("ollama generate", errors.New("empty response"))
	}

	o.logger.Debug("generated completion",
		zap.String("model", o.completionModel),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(resp.Response)))
	return resp.Response, nil
}

// post is a helper for POST requests to the Ollama endpoint (with optional bearer token).
func (o *OllamaProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
