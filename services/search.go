package services

import (
	"context"
	"strings"

	"findocbot/models"
)

// SearchResult is one ranked chunk returned by retrieval.
type SearchResult struct {
	ChunkID    string
	DocumentID string
	ChunkIndex int
	Text       string
	Section    string
	Score      float64
}

// ToResponse converts to the wire shape; an empty section becomes null.
func (r SearchResult) ToResponse() models.ChunkResponse {
	resp := models.ChunkResponse{
		ChunkID:    r.ChunkID,
		DocumentID: r.DocumentID,
		ChunkIndex: r.ChunkIndex,
		Text:       r.Text,
		Score:      r.Score,
	}
	if r.Section != "" {
		section := r.Section
		resp.Section = &section
	}
	return resp
}

// ToChunkResponses converts a result list for the HTTP layer.
func ToChunkResponses(results []SearchResult) []models.ChunkResponse {
	out := make([]models.ChunkResponse, len(results))
	for i, r := range results {
		out[i] = r.ToResponse()
	}
	return out
}

// SearchService finds the chunks most similar to a query.
type SearchService struct {
	provider ModelProvider
	chunks   ChunkRepository
}

// NewSearchService expects provider to be the caching wrapper so repeated
// queries skip the embedding call.
func NewSearchService(provider ModelProvider, chunks ChunkRepository) *SearchService {
	return &SearchService{provider: provider, chunks: chunks}
}

// Execute embeds the trimmed query and returns up to topK chunks in store order.
func (s *SearchService) Execute(ctx context.Context, query string, topK int) ([]SearchResult, error) {
	clean := strings.TrimSpace(query)
	if clean == "" {
		return nil, ErrInvalidQuery
	}

	embedding, err := s.provider.EmbedOne(ctx, clean)
	if err != nil {
		return nil, err
	}
	matches, err := s.chunks.SearchByEmbedding(ctx, embedding, topK)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			ChunkID:    m.Chunk.ID,
			DocumentID: m.Chunk.DocumentID,
			ChunkIndex: m.Chunk.ChunkIndex,
			Text:       m.Chunk.Text,
			Section:    m.Chunk.Section,
			Score:      m.Score,
		}
	}
	return results, nil
}
