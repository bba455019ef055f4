package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"findocbot/internal/config"
	"findocbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChunks(docID string, texts ...string) []models.Chunk {
	out := make([]models.Chunk, len(texts))
	for i, t := range texts {
		out[i] = models.Chunk{ID: fmt.Sprintf("%s-c%d", docID, i), DocumentID: docID, ChunkIndex: i, Text: t}
	}
	return out
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 1}, []float32{-1, -1}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 1}))
}

func TestMemoryStoreSearchRanksByCosine(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	chunks := testChunks("d1", "revenue", "profit", "mixed")
	require.NoError(t, s.AddChunksWithEmbeddings(ctx, chunks, [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 0},
	}))

	results, err := s.SearchByEmbedding(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "revenue", results[0].Chunk.Text)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "mixed", results[1].Chunk.Text)
	assert.True(t, results[0].Score >= results[1].Score)

	again, err := s.SearchByEmbedding(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, results, again)

	all, err := s.SearchByEmbedding(ctx, []float32{1, 0, 0}, 20)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryStoreSearchEmpty(t *testing.T) {
	results, err := NewMemoryStore().SearchByEmbedding(context.Background(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreCreateReplacesSameID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, models.Document{ID: "d1", Filename: "draft.pdf"}))
	require.NoError(t, s.Create(ctx, models.Document{ID: "d2", Filename: "other.pdf"}))
	require.NoError(t, s.Create(ctx, models.Document{ID: "d1", Filename: "final.pdf"}))

	docs := s.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "final.pdf", docs[0].Filename)
	assert.Equal(t, "d2", docs[1].ID)
}

func TestMemoryStoreAddChunksIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.AddChunksWithEmbeddings(ctx, testChunks("d1", "a", "b"), [][]float32{{1}})
	require.ErrorIs(t, err, ErrLengthMismatch)
	assert.Empty(t, s.Chunks())
}

func TestMemoryStoreListRecent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, s.AddTurn(ctx, models.ChatTurn{
			ID:        fmt.Sprintf("t%d", i),
			SessionID: "s1",
			Question:  fmt.Sprintf("q%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.AddTurn(ctx, models.ChatTurn{ID: "other", SessionID: "s2"}))

	turns, err := s.ListRecent(ctx, "s1", 5)
	require.NoError(t, err)
	require.Len(t, turns, 5)
	assert.Equal(t, "q2", turns[0].Question)
	assert.Equal(t, "q6", turns[4].Question)
	assert.Equal(t, int64(7), turns[4].Seq)

	none, err := s.ListRecent(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	unknown, err := s.ListRecent(ctx, "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestBackendsMemoryShareOneStore(t *testing.T) {
	mem := NewMemoryStore()
	b := &Backends{Records: mem, Chunks: mem}
	assert.NoError(t, b.Close(context.Background()))
}

func TestMemoryStorePingAfterClose(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close(ctx))
	assert.ErrorIs(t, s.Ping(ctx), ErrStoreClosed)
}

func TestWithChunkIndexClosesRecordsOnFailure(t *testing.T) {
	ctx := context.Background()
	notADir := filepath.Join(t.TempDir(), "vectors")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o600))

	cases := map[string]*config.Config{
		"chromem path is a file":      {VectorBackend: config.BackendChromem, ChromemPath: notADir},
		"mongo vectors without mongo": {VectorBackend: config.BackendMongo},
		"unknown backend":             {VectorBackend: "faiss"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			records := NewMemoryStore()
			b, err := withChunkIndex(ctx, cfg, records)
			require.Error(t, err)
			assert.Nil(t, b)
			assert.ErrorIs(t, records.Ping(ctx), ErrStoreClosed)
		})
	}
}

func TestWithChunkIndexSharesMemoryStore(t *testing.T) {
	records := NewMemoryStore()
	b, err := withChunkIndex(context.Background(), &config.Config{VectorBackend: config.BackendMemory}, records)
	require.NoError(t, err)
	assert.Same(t, records, b.Chunks)
	require.NoError(t, records.Ping(context.Background()))
}
