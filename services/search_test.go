package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchReturnsRelevantChunk(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, ChunkerOptions{ChunkTokens: 10, OverlapRatio: 0.15, MinChunkTokens: 1})
	_, err := p.upload.Execute(ctx, "report.pdf", []byte(sectionReport))
	require.NoError(t, err)

	results, err := p.search.Execute(ctx, "revenue", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Text, "Revenue")
	assert.Equal(t, "Section 1", results[0].Section)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearchIsIdempotentAndCachesQueryEmbedding(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, ChunkerOptions{ChunkTokens: 10, OverlapRatio: 0.15, MinChunkTokens: 1})
	_, err := p.upload.Execute(ctx, "report.pdf", []byte(sectionReport))
	require.NoError(t, err)

	first, err := p.search.Execute(ctx, "  profit  ", 5)
	require.NoError(t, err)
	second, err := p.search.Execute(ctx, "profit", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.provider.embedOne)
	stats := p.cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	p := newPipeline(t, DefaultChunkerOptions())
	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := p.search.Execute(context.Background(), q, 5)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}
	assert.Equal(t, 0, p.provider.embedOne)
}

func TestSearchResultToResponse(t *testing.T) {
	withSection := SearchResult{ChunkID: "c", DocumentID: "d", ChunkIndex: 2, Text: "t", Section: "Section 1", Score: 0.5}
	resp := withSection.ToResponse()
	require.NotNil(t, resp.Section)
	assert.Equal(t, "Section 1", *resp.Section)

	resp = SearchResult{ChunkID: "c"}.ToResponse()
	assert.Nil(t, resp.Section)

	assert.Len(t, ToChunkResponses([]SearchResult{withSection, {}}), 2)
}
