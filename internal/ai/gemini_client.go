package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"findocbot/internal/logger"
	"findocbot/internal/telemetry"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// ErrProviderUnavailable is returned while the circuit breaker is open.
var ErrProviderUnavailable = errors.New("model provider temporarily unavailable")

// ErrProviderNotStarted is returned when a call is made before Start.
var ErrProviderNotStarted = errors.New("model provider not started")

type GeminiOptions struct {
	APIKey     string
	Tier       string
	ChatModel  string
	EmbedModel string
	BatchSize  int
}

type GeminiClient struct {
	opts        GeminiOptions
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
	metrics     *telemetry.Metrics

	mu     sync.RWMutex
	client *genai.Client
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewGeminiClient(opts GeminiOptions, metrics *telemetry.Metrics) *GeminiClient {
	limits := getRateLimits(opts.Tier)
	if opts.BatchSize < 1 || opts.BatchSize > 100 {
		// batchEmbedContents accepts at most 100 requests
		opts.BatchSize = 100
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState("gemini", to.String())
		},
	})

	// RPM limit with some buffer
	burst := limits.RPM / 10
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), burst)

	return &GeminiClient{
		opts:        opts,
		breaker:     breaker,
		rateLimiter: rateLimiter,
		metrics:     metrics,
	}
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// Start opens the underlying SDK client.
func (gc *GeminiClient) Start(ctx context.Context) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.client != nil {
		return nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(gc.opts.APIKey))
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	gc.client = client
	return nil
}

// Stop closes the SDK client. Safe to call more than once.
func (gc *GeminiClient) Stop(ctx context.Context) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	if gc.client == nil {
		return nil
	}
	err := gc.client.Close()
	gc.client = nil
	return err
}

func (gc *GeminiClient) sdk() (*genai.Client, error) {
	gc.mu.RLock()
	defer gc.mu.RUnlock()
	if gc.client == nil {
		return nil, ErrProviderNotStarted
	}
	return gc.client, nil
}

// call runs fn behind the rate limiter and circuit breaker.
func (gc *GeminiClient) call(ctx context.Context, operation string, fn func(*genai.Client) (interface{}, error)) (interface{}, error) {
	client, err := gc.sdk()
	if err != nil {
		return nil, err
	}
	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	result, err := gc.breaker.Execute(func() (interface{}, error) {
		return fn(client)
	})
	gc.metrics.RecordProviderCall("gemini", operation, err == nil)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("gemini %s: %w", operation, ErrProviderUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", operation, err)
	}
	return result, nil
}

func (gc *GeminiClient) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer("gemini-client").Start(ctx, "gemini.embed_one")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", gc.opts.EmbedModel))

	result, err := gc.call(ctx, "embed_one", func(client *genai.Client) (interface{}, error) {
		res, err := client.EmbeddingModel(gc.opts.EmbedModel).EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if res.Embedding == nil {
			return nil, fmt.Errorf("no embedding returned")
		}
		return res.Embedding.Values, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}
	return result.([]float32), nil
}

// EmbedMany embeds texts in batches of BatchSize, preserving input order.
func (gc *GeminiClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	ctx, span := otel.Tracer("gemini-client").Start(ctx, "gemini.embed_many")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", gc.opts.EmbedModel),
		attribute.Int("gemini.texts", len(texts)),
	)

	out := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, gc.opts.BatchSize) {
		result, err := gc.call(ctx, "embed_many", func(client *genai.Client) (interface{}, error) {
			b := client.EmbeddingModel(gc.opts.EmbedModel).NewBatch()
			for _, t := range batch {
				b.AddContent(genai.Text(t))
			}
			res, err := client.EmbeddingModel(gc.opts.EmbedModel).BatchEmbedContents(ctx, b)
			if err != nil {
				return nil, err
			}
			if len(res.Embeddings) != len(batch) {
				return nil, fmt.Errorf("expected %d embeddings, got %d", len(batch), len(res.Embeddings))
			}
			vectors := make([][]float32, len(res.Embeddings))
			for i, e := range res.Embeddings {
				vectors[i] = e.Values
			}
			return vectors, nil
		})
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}
		out = append(out, result.([][]float32)...)
	}
	return out, nil
}

func (gc *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer("gemini-client").Start(ctx, "gemini.generate_content")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", gc.opts.ChatModel),
		attribute.Int("gemini.estimated_tokens", len(prompt)/4),
	)

	result, err := gc.call(ctx, "generate", func(client *genai.Client) (interface{}, error) {
		model := client.GenerativeModel(gc.opts.ChatModel)
		model.SetTemperature(0.2)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		if resp.UsageMetadata != nil {
			span.SetAttributes(attribute.Int("gemini.actual_tokens", int(resp.UsageMetadata.TotalTokenCount)))
		}
		return responseText(resp), nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", err
	}
	span.SetAttributes(attribute.Bool("gemini.success", true))
	return strings.TrimSpace(result.(string)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		// first candidate only
		break
	}
	return sb.String()
}
