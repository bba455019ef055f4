package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"findocbot/internal/ai"
	"findocbot/internal/database"
	"findocbot/models"
	"findocbot/utils"

	"github.com/stretchr/testify/require"
)

// keywordProvider embeds text as counts of three finance keywords and answers
// from the prompt it is given.
type keywordProvider struct {
	mu          sync.Mutex
	prompts     []string
	embedOne    int
	embedMany   int
	generateErr error
	shortBy     int
}

func encodeKeywords(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "revenue")),
		float32(strings.Count(lower, "profit")),
		float32(strings.Count(lower, "assets")),
	}
}

func (p *keywordProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.embedOne++
	p.mu.Unlock()
	return encodeKeywords(text), nil
}

func (p *keywordProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	p.embedMany++
	p.mu.Unlock()
	out := make([][]float32, 0, len(texts))
	for _, t := range texts[:len(texts)-p.shortBy] {
		out = append(out, encodeKeywords(t))
	}
	return out, nil
}

func (p *keywordProvider) Generate(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	if p.generateErr != nil {
		return "", p.generateErr
	}
	if strings.Contains(strings.ToLower(prompt), "revenue grew") {
		return "  Revenue growth is 20 percent according to the report.\n", nil
	}
	return "Insufficient context.", nil
}

// plainTextExtractor treats the upload bytes as already-extracted text.
type plainTextExtractor struct {
	err error
}

func (e plainTextExtractor) ExtractText(content []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return string(content), nil
}

type pipeline struct {
	provider *keywordProvider
	cache    *ai.EmbeddingCache
	store    *database.MemoryStore
	clock    *utils.ManualClock
	upload   *UploadService
	search   *SearchService
	answer   *AnswerService
}

func newPipeline(t *testing.T, opts ChunkerOptions) *pipeline {
	t.Helper()
	provider := &keywordProvider{}
	clock := utils.NewManualClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	cache, err := ai.NewEmbeddingCache(provider, 100, time.Hour, clock)
	require.NoError(t, err)
	chunker, err := NewChunker(opts)
	require.NoError(t, err)

	store := database.NewMemoryStore()
	ids := &utils.SequenceGenerator{Prefix: "id"}
	search := NewSearchService(cache, store)

	return &pipeline{
		provider: provider,
		cache:    cache,
		store:    store,
		clock:    clock,
		upload: NewUploadService(UploadServiceDeps{
			Extractor: plainTextExtractor{},
			Chunker:   chunker,
			Provider:  cache,
			Documents: store,
			Chunks:    store,
			Clock:     clock,
			IDs:       ids,
		}),
		search: search,
		answer: NewAnswerService(AnswerServiceDeps{
			Provider:        cache,
			Search:          search,
			History:         store,
			Clock:           clock,
			IDs:             ids,
			MaxHistoryPairs: 5,
		}),
	}
}

// failingChunkRepository rejects every chunk write without storing anything.
type failingChunkRepository struct {
	ChunkRepository
	err error
}

func (f failingChunkRepository) AddChunksWithEmbeddings(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	return f.err
}

var errBoom = errors.New("boom")
