package database

import (
	"context"
	"os"
	"testing"
	"time"

	"findocbot/internal/config"
	"findocbot/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real MongoDB when MONGO_TEST_URI is set. Vector search needs
// Atlas and is not covered here.
func TestMongoStoreLive(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbName := "findocbot_test_" + uuid.NewString()[:8]
	client, err := config.ConnectMongoDB(&config.Config{MongoURI: uri, DBName: dbName})
	require.NoError(t, err)
	store := NewMongoStore(client, dbName, "chunks_vector")
	defer func() {
		_ = client.Database(dbName).Drop(ctx)
		_ = store.Close(ctx)
	}()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Create(ctx, models.Document{ID: "d-1", Filename: "a.pdf", CreatedAt: time.Now().UTC()}))

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, q := range []string{"q1", "q2", "q3"} {
		require.NoError(t, store.AddTurn(ctx, models.ChatTurn{
			ID:        uuid.NewString(),
			SessionID: "s1",
			Question:  q,
			Answer:    "a" + q,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := store.ListRecent(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "q2", recent[0].Question)
	assert.Equal(t, "q3", recent[1].Question)

	// Same timestamp: insertion order decides.
	for _, q := range []string{"first", "second", "third"} {
		require.NoError(t, store.AddTurn(ctx, models.ChatTurn{
			ID:        uuid.NewString(),
			SessionID: "s2",
			Question:  q,
			CreatedAt: base,
		}))
	}
	tied, err := store.ListRecent(ctx, "s2", 2)
	require.NoError(t, err)
	require.Len(t, tied, 2)
	assert.Equal(t, "second", tied[0].Question)
	assert.Equal(t, "third", tied[1].Question)
	assert.Equal(t, int64(3), tied[1].Seq)
}

// Runs against a real Qdrant when QDRANT_TEST_HOST is set.
func TestQdrantStoreLive(t *testing.T) {
	host := os.Getenv("QDRANT_TEST_HOST")
	if host == "" {
		t.Skip("QDRANT_TEST_HOST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewQdrantStore(QdrantOptions{
		Host:       host,
		Port:       6334,
		Collection: "findocbot_test_" + uuid.NewString()[:8],
		VectorDim:  3,
	})
	require.NoError(t, err)
	defer store.Close(ctx)
	require.NoError(t, store.EnsureCollection(ctx))
	defer func() { _ = store.client.DeleteCollection(ctx, store.collection) }()

	chunks := []models.Chunk{
		{ID: "c-0", DocumentID: "d-1", ChunkIndex: 0, Text: "revenue", Section: "Section 1"},
		{ID: "c-1", DocumentID: "d-1", ChunkIndex: 1, Text: "profit"},
	}
	require.NoError(t, store.AddChunksWithEmbeddings(ctx, chunks, [][]float32{{1, 0, 0}, {0, 1, 0}}))

	hits, err := store.SearchByEmbedding(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, chunks[0], hits[0].Chunk)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
}
