package database

import (
	"context"
	"errors"
	"sync"

	"findocbot/models"
)

// MemoryStore keeps documents, chunks and chat turns in process memory.
// It backs STORE_BACKEND=memory and the test suites.
type MemoryStore struct {
	mu        sync.RWMutex
	documents []models.Document
	chunks    []models.ChunkIndexEntry
	turns     []models.ChatTurn
	closed    bool
}

// ErrStoreClosed is returned by Ping after Close.
var ErrStoreClosed = errors.New("store is closed")

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Create(ctx context.Context, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.documents {
		if s.documents[i].ID == doc.ID {
			s.documents[i] = doc
			return nil
		}
	}
	s.documents = append(s.documents, doc)
	return nil
}

// AddChunksWithEmbeddings stores all rows or none.
func (s *MemoryStore) AddChunksWithEmbeddings(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if err := checkLengths(chunks, embeddings); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		s.chunks = append(s.chunks, models.NewChunkIndexEntry(c, vec))
	}
	return nil
}

func (s *MemoryStore) SearchByEmbedding(ctx context.Context, embedding []float32, topK int) ([]models.ChunkWithScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rankByCosine(s.chunks, embedding, topK), nil
}

func (s *MemoryStore) AddTurn(ctx context.Context, turn models.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn.Seq = int64(len(s.turns) + 1)
	s.turns = append(s.turns, turn)
	return nil
}

// ListRecent returns the last limit turns of the session, oldest first.
func (s *MemoryStore) ListRecent(ctx context.Context, sessionID string, limit int) ([]models.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.ChatTurn{}
	if limit <= 0 {
		return out, nil
	}
	for i := len(s.turns) - 1; i >= 0 && len(out) < limit; i-- {
		if s.turns[i].SessionID == sessionID {
			out = append(out, s.turns[i])
		}
	}
	// Reverse to chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *MemoryStore) Documents() []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Document(nil), s.documents...)
}

func (s *MemoryStore) Chunks() []models.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Chunk, len(s.chunks))
	for i, e := range s.chunks {
		out[i] = e.ToChunk()
	}
	return out
}

func (s *MemoryStore) Turns() []models.ChatTurn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatTurn(nil), s.turns...)
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close keeps the data readable; only Ping reports the store as closed.
func (s *MemoryStore) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
