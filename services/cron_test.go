package services

import (
	"testing"
	"time"

	"findocbot/internal/ai"
	"findocbot/internal/logger/loggertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestCronServiceSchedulesCacheStats(t *testing.T) {
	c := NewCronService()
	require.NoError(t, c.ScheduleCacheStats(time.Minute, func() ai.CacheStats { return ai.CacheStats{} }))
	assert.Equal(t, 1, c.Jobs())

	// tags are unique
	assert.Error(t, c.ScheduleCacheStats(time.Minute, func() ai.CacheStats { return ai.CacheStats{} }))
	assert.Error(t, NewCronService().ScheduleCacheStats(0, nil))
}

func TestLogCacheStats(t *testing.T) {
	logs := loggertest.Observe(t, zapcore.InfoLevel)
	LogCacheStats(ai.CacheStats{Hits: 3, Misses: 1, Size: 2, MaxSize: 10})

	entries := logs.FilterMessage("Embedding cache stats").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, uint64(3), fields["hits"])
	assert.Equal(t, 0.75, fields["hit_rate"])
}
