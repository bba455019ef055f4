package services

import (
	"context"

	"findocbot/models"
)

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	ExtractText(content []byte) (string, error)
}

// ModelProvider embeds text and generates answers.
type ModelProvider interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// DocumentRepository stores document metadata. Create replaces an existing
// row with the same id.
type DocumentRepository interface {
	Create(ctx context.Context, doc models.Document) error
}

// ChunkRepository stores chunks with their vectors. AddChunksWithEmbeddings
// pairs chunks[i] with embeddings[i] and writes all rows or none.
// SearchByEmbedding returns at most topK chunks, highest cosine score first.
type ChunkRepository interface {
	AddChunksWithEmbeddings(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error
	SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]models.ChunkWithScore, error)
}

// HistoryRepository keeps chat turns. ListRecent returns at most limit of the
// newest turns of a session, oldest first.
type HistoryRepository interface {
	AddTurn(ctx context.Context, turn models.ChatTurn) error
	ListRecent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error)
}
