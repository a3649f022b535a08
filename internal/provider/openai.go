package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIProvider implements Provider with the OpenAI API or any compatible server.
type OpenAIProvider struct {
	client          *openai.Client
	embeddingModel  openai.EmbeddingModel
	completionModel string
	logger          *zap.Logger
}

// NewOpenAIProvider creates an OpenAI-backed provider. The API key is required unless
// BaseURL points at a self-hosted compatible server.
func NewOpenAIProvider(cfg config.ProviderConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" && (cfg.BaseURL == "" || cfg.BaseURL == config.DefaultOpenAIURL) {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIProvider{
		client:          openai.NewClientWithConfig(clientCfg),
		embeddingModel:  openai.EmbeddingModel(cfg.EmbeddingModel),
		completionModel: cfg.CompletionModel,
		logger:          logger,
	}, nil
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string { return config.ProviderOpenAI }

// Embed generates an embedding with a single CreateEmbeddings call.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: p.embeddingModel,
	})
	if err != nil {
		return nil, models.ProviderError("openai embed", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, models.ProviderError("openai embed", errors.New("no embeddings returned"))
	}
	p.logger.Debug("embedded text",
		zap.String("model", string(p.embeddingModel)),
		zap.Int("chars", len(text)),
		zap.Int("dimensions", len(resp.Data[0].Embedding)))
	return resp.Data[0].Embedding, nil
}

// Complete sends the prompt as a single user message.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.completionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", models.GenerationError("openai complete", err)
	}
	if len(resp.Choices) == 0 {
		return "", models.GenerationError("openai complete", errors.New("no completion choices returned"))
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", models.GenerationError("openai complete", errors.New("empty completion"))
	}
	p.logger.Debug("generated completion",
		zap.String("model", p.completionModel),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(content)))
	return content, nil
}
