package ai

import (
	"context"
	"fmt"

	"findocbot/internal/config"
	"findocbot/internal/telemetry"
)

// Provider is a model backend able to embed text and generate completions.
type Provider interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Starter is implemented by providers that need to open connections before use.
type Starter interface {
	Start(ctx context.Context) error
}

// Stopper is implemented by providers holding resources that must be released.
type Stopper interface {
	Stop(ctx context.Context) error
}

// NewProvider builds the backend selected by MODEL_PROVIDER.
func NewProvider(cfg *config.Config, metrics *telemetry.Metrics) (Provider, error) {
	switch cfg.ModelProvider {
	case config.ProviderGemini:
		return NewGeminiClient(GeminiOptions{
			APIKey:     cfg.GeminiAPIKey,
			Tier:       cfg.GeminiTier,
			ChatModel:  cfg.GeminiChatModel,
			EmbedModel: cfg.GeminiEmbedModel,
			BatchSize:  cfg.EmbeddingBatchSize,
		}, metrics), nil
	case config.ProviderOllama:
		return NewOllamaClient(OllamaOptions{
			BaseURL:    cfg.OllamaBaseURL,
			ChatModel:  cfg.OllamaChatModel,
			EmbedModel: cfg.OllamaEmbedModel,
			BatchSize:  cfg.EmbeddingBatchSize,
		}, metrics), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.ModelProvider)
	}
}

// batches splits texts into consecutive slices of at most size elements.
func batches(texts []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	out := make([][]string, 0, (len(texts)+size-1)/size)
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		out = append(out, texts[start:end])
	}
	return out
}
