package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"findocbot/internal/telemetry"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type OllamaOptions struct {
	BaseURL    string
	ChatModel  string
	EmbedModel string
	BatchSize  int
}

// OllamaClient talks to a local Ollama server. Embedding requests are split
// into batches of BatchSize so large documents stay under the server timeout.
type OllamaClient struct {
	opts    OllamaOptions
	metrics *telemetry.Metrics

	mu       sync.RWMutex
	chat     *ollama.LLM
	embedder *embeddings.EmbedderImpl
}

func NewOllamaClient(opts OllamaOptions, metrics *telemetry.Metrics) *OllamaClient {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.BatchSize < 1 {
		opts.BatchSize = 50
	}
	return &OllamaClient{opts: opts, metrics: metrics}
}

func (oc *OllamaClient) Start(ctx context.Context) error {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if oc.chat != nil {
		return nil
	}

	chat, err := ollama.New(ollama.WithModel(oc.opts.ChatModel), ollama.WithServerURL(oc.opts.BaseURL))
	if err != nil {
		return fmt.Errorf("failed to create Ollama chat client: %w", err)
	}
	embedLLM, err := ollama.New(ollama.WithModel(oc.opts.EmbedModel), ollama.WithServerURL(oc.opts.BaseURL))
	if err != nil {
		return fmt.Errorf("failed to create Ollama embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(embedLLM,
		embeddings.WithBatchSize(oc.opts.BatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return fmt.Errorf("failed to create Ollama embedder: %w", err)
	}

	oc.chat = chat
	oc.embedder = embedder
	return nil
}

func (oc *OllamaClient) Stop(ctx context.Context) error {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.chat = nil
	oc.embedder = nil
	return nil
}

func (oc *OllamaClient) clients() (*ollama.LLM, *embeddings.EmbedderImpl, error) {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	if oc.chat == nil || oc.embedder == nil {
		return nil, nil, ErrProviderNotStarted
	}
	return oc.chat, oc.embedder, nil
}

// EmbedOne is a single-element EmbedMany.
func (oc *OllamaClient) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := oc.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("ollama embed: expected 1 embedding, got %d", len(vectors))
	}
	return vectors[0], nil
}

func (oc *OllamaClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	_, embedder, err := oc.clients()
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer("ollama-client").Start(ctx, "ollama.embed_many")
	defer span.End()
	span.SetAttributes(
		attribute.String("ollama.model", oc.opts.EmbedModel),
		attribute.Int("ollama.texts", len(texts)),
		attribute.Int("ollama.batches", len(batches(texts, oc.opts.BatchSize))),
	)

	vectors, err := embedder.EmbedDocuments(ctx, texts)
	oc.metrics.RecordProviderCall("ollama", "embed_many", err == nil)
	if err != nil {
		span.SetAttributes(attribute.Bool("ollama.error", true))
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("ollama embed: expected %d embeddings, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

func (oc *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	chat, _, err := oc.clients()
	if err != nil {
		return "", err
	}

	ctx, span := otel.Tracer("ollama-client").Start(ctx, "ollama.generate")
	defer span.End()
	span.SetAttributes(attribute.String("ollama.model", oc.opts.ChatModel))

	answer, err := llms.GenerateFromSinglePrompt(ctx, chat, prompt)
	oc.metrics.RecordProviderCall("ollama", "generate", err == nil)
	if err != nil {
		span.SetAttributes(attribute.Bool("ollama.error", true))
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
