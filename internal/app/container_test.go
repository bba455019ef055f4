package app

import (
	"context"
	"testing"
	"time"

	"findocbot/internal/config"
	"findocbot/internal/database"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		ModelProvider:      config.ProviderOllama,
		OllamaBaseURL:      "http://localhost:11434",
		OllamaChatModel:    "qwen2.5:7b",
		OllamaEmbedModel:   "nomic-embed-text:latest",
		EmbeddingBatchSize: 8,
		EmbeddingCacheSize: 10,
		EmbeddingCacheTTL:  time.Hour,
		ChunkTokens:        300,
		ChunkOverlapRatio:  0.15,
		MinChunkTokens:     80,
		DefaultTopK:        5,
		MaxHistoryPairs:    5,
		StoreBackend:       config.BackendMemory,
		VectorBackend:      config.BackendMemory,
		VectorDim:          3,
		CacheStatsInterval: time.Minute,
		GinMode:            "test",
	}
}

func TestContainerLifecycle(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, memoryConfig())
	require.NoError(t, err)

	assert.NotNil(t, c.Upload)
	assert.NotNil(t, c.Search)
	assert.NotNil(t, c.Answer)
	assert.NotNil(t, c.MetricsHandler)
	assert.Nil(t, c.Queue)
	assert.Nil(t, c.Inspector)
	assert.Nil(t, c.Redis)
	assert.Equal(t, 1, c.Cron.Jobs())
	assert.Equal(t, 10, c.Cache.Stats().MaxSize)

	require.NoError(t, c.Start(ctx))
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Shutdown(ctx))
}

func TestContainerRejectsBadChunking(t *testing.T) {
	cfg := memoryConfig()
	cfg.ChunkOverlapRatio = 1.5

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestContainerWithoutCacheStatsJob(t *testing.T) {
	cfg := memoryConfig()
	cfg.CacheStatsInterval = 0

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Cron.Jobs())
	require.NoError(t, c.Shutdown(context.Background()))
}

// captureBackends makes New use mem for both storage roles.
func captureBackends(t *testing.T, mem *database.MemoryStore) {
	t.Helper()
	previous := openBackends
	openBackends = func(ctx context.Context, cfg *config.Config) (*database.Backends, error) {
		return &database.Backends{Records: mem, Chunks: mem}, nil
	}
	t.Cleanup(func() { openBackends = previous })
}

func TestContainerReleasesBackendsWhenQueueConfigFails(t *testing.T) {
	mem := database.NewMemoryStore()
	captureBackends(t, mem)

	cfg := memoryConfig()
	cfg.AsyncIngestionEnabled = true
	cfg.RedisURL = "redis://%zz"

	c, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.ErrorIs(t, mem.Ping(context.Background()), database.ErrStoreClosed)
}

func TestReleaseClosesPartialContainer(t *testing.T) {
	ctx := context.Background()
	mem := database.NewMemoryStore()
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:0"})

	c := &Container{
		Backends: &database.Backends{Records: mem, Chunks: mem},
		Redis:    rdb,
	}
	require.NoError(t, c.release(ctx))

	assert.ErrorIs(t, mem.Ping(ctx), database.ErrStoreClosed)
	assert.ErrorIs(t, rdb.Ping(ctx).Err(), redis.ErrClosed)
}

func TestReleaseOnEmptyContainer(t *testing.T) {
	assert.NoError(t, (&Container{}).release(context.Background()))
}
