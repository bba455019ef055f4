package database

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"findocbot/models"

	"github.com/philippgille/chromem-go"
)

const chromemCollection = "chunks"

// ChromemStore is an embedded vector index. With an empty path it lives in
// memory only, otherwise it persists to a directory.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection

	// chromem has no multi-document transaction; writes are serialized so a
	// failed batch can be rolled back before anyone reads it.
	mu sync.RWMutex
}

func NewChromemStore(path string) (*ChromemStore, error) {
	var db *chromem.DB
	if path == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem db at %s: %w", path, err)
		}
	}

	// Embeddings always arrive precomputed.
	noEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("chromem store requires precomputed embeddings")
	}
	collection, err := db.GetOrCreateCollection(chromemCollection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", chromemCollection, err)
	}
	return &ChromemStore{db: db, collection: collection}, nil
}

func (s *ChromemStore) AddChunksWithEmbeddings(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if err := checkLengths(chunks, embeddings); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		docs[i] = chromem.Document{
			ID: c.ID,
			Metadata: map[string]string{
				"document_id": c.DocumentID,
				"chunk_index": strconv.Itoa(c.ChunkIndex),
				"section":     c.Section,
			},
			Embedding: vec,
			Content:   c.Text,
		}
		ids[i] = c.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		// remove whatever made it in
		_ = s.collection.Delete(context.Background(), nil, nil, ids...)
		return fmt.Errorf("failed to add chunks: %w", err)
	}
	return nil
}

func (s *ChromemStore) SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]models.ChunkWithScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := topK
	if count := s.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return []models.ChunkWithScore{}, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query failed: %w", err)
	}

	out := make([]models.ChunkWithScore, len(results))
	for i, r := range results {
		idx, _ := strconv.Atoi(r.Metadata["chunk_index"])
		out[i] = models.ChunkWithScore{
			Chunk: models.Chunk{
				ID:         r.ID,
				DocumentID: r.Metadata["document_id"],
				ChunkIndex: idx,
				Text:       r.Content,
				Section:    r.Metadata["section"],
			},
			Score: float64(r.Similarity),
		}
	}
	return out, nil
}

func (s *ChromemStore) Close(ctx context.Context) error {
	return nil
}
