package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"findocbot/internal/logger"
	"findocbot/internal/telemetry"
	"findocbot/models"
	"findocbot/utils"
)

// UploadService ingests a file: extract, chunk, embed and persist.
type UploadService struct {
	extractor TextExtractor
	chunker   *Chunker
	provider  ModelProvider
	documents DocumentRepository
	chunks    ChunkRepository
	clock     utils.Clock
	ids       utils.IDGenerator
	metrics   *telemetry.Metrics
}

type UploadServiceDeps struct {
	Extractor TextExtractor
	Chunker   *Chunker
	Provider  ModelProvider
	Documents DocumentRepository
	Chunks    ChunkRepository
	Clock     utils.Clock
	IDs       utils.IDGenerator
	Metrics   *telemetry.Metrics
}

func NewUploadService(deps UploadServiceDeps) *UploadService {
	if deps.Clock == nil {
		deps.Clock = utils.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = utils.UUIDGenerator{}
	}
	return &UploadService{
		extractor: deps.Extractor,
		chunker:   deps.Chunker,
		provider:  deps.Provider,
		documents: deps.Documents,
		chunks:    deps.Chunks,
		clock:     deps.Clock,
		ids:       deps.IDs,
		metrics:   deps.Metrics,
	}
}

// Execute returns the stored document. Empty extracted text fails with
// ErrEmptyDocument before anything is written.
func (s *UploadService) Execute(ctx context.Context, filename string, content []byte) (*models.Document, error) {
	return s.ExecuteWithID(ctx, s.ids.NewID(), filename, content)
}

// ExecuteWithID ingests under a caller-chosen document id. Running it again
// with the same id after a failure rewrites the same document row, so retried
// jobs do not leave orphan documents behind.
func (s *UploadService) ExecuteWithID(ctx context.Context, documentID, filename string, content []byte) (*models.Document, error) {
	start := time.Now()
	if documentID == "" {
		documentID = s.ids.NewID()
	}

	raw, err := s.extractor.ExtractText(content)
	if err != nil {
		s.metrics.RecordIngestion(time.Since(start).Seconds(), 0, "failed")
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		s.metrics.RecordIngestion(time.Since(start).Seconds(), 0, "empty")
		return nil, ErrEmptyDocument
	}

	doc := models.Document{
		ID:        documentID,
		Filename:  filename,
		CreatedAt: s.clock.Now(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.metrics.RecordIngestion(time.Since(start).Seconds(), 0, "failed")
		return nil, err
	}

	chunks := s.buildChunks(doc.ID, s.chunker.Split(text))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := s.provider.EmbedMany(ctx, texts)
	if err != nil {
		s.metrics.RecordIngestion(time.Since(start).Seconds(), 0, "failed")
		return nil, err
	}
	if len(embeddings) != len(chunks) {
		panic(fmt.Sprintf("provider returned %d embeddings for %d chunks", len(embeddings), len(chunks)))
	}

	if err := s.chunks.AddChunksWithEmbeddings(ctx, chunks, embeddings); err != nil {
		s.metrics.RecordIngestion(time.Since(start).Seconds(), 0, "failed")
		return nil, err
	}

	s.metrics.RecordIngestion(time.Since(start).Seconds(), len(chunks), "success")
	logger.Info("Document ingested",
		"document_id", doc.ID,
		"filename", filename,
		"chunks", len(chunks),
		"duration", time.Since(start).String(),
	)
	return &doc, nil
}

// buildChunks drops blank pieces and numbers the rest from 0.
func (s *UploadService) buildChunks(documentID string, pieces []TextPiece) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			ID:         s.ids.NewID(),
			DocumentID: documentID,
			ChunkIndex: len(chunks),
			Text:       p.Text,
			Section:    p.Section,
		})
	}
	return chunks
}
