package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"findocbot/internal/config"
	"findocbot/internal/logger"
	"findocbot/utils"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// CacheStats reports embedding cache usage.
type CacheStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Size    int    `json:"size"`
	MaxSize int    `json:"max_size"`
}

// HitRate is hits/(hits+misses), or 0 before the first lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type cacheEntry struct {
	vector   []float32
	storedAt time.Time
}

// EmbeddingCache memoizes EmbedOne results of the wrapped provider. Entries are
// evicted in least-recently-used order once MaxSize is exceeded and, when a TTL
// is set, dropped on lookup after they age past it. EmbedMany and Generate are
// forwarded untouched.
type EmbeddingCache struct {
	provider Provider
	clock    utils.Clock
	ttl      time.Duration
	maxSize  int

	mu      sync.Mutex
	entries *simplelru.LRU[string, cacheEntry]
	hits    uint64
	misses  uint64
}

// NewEmbeddingCache wraps provider. A ttl of zero keeps entries until evicted.
func NewEmbeddingCache(provider Provider, maxSize int, ttl time.Duration, clock utils.Clock) (*EmbeddingCache, error) {
	if maxSize < 1 {
		return nil, fmt.Errorf("embedding cache size must be positive, got %d", maxSize)
	}
	if ttl < 0 {
		return nil, fmt.Errorf("embedding cache ttl must not be negative")
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	entries, err := simplelru.NewLRU[string, cacheEntry](maxSize, nil)
	if err != nil {
		return nil, err
	}
	if maxSize > config.CacheSizeWarnThreshold {
		logger.Warn("Large embedding cache size configured; this may consume significant memory",
			"cache_size", maxSize, "threshold", config.CacheSizeWarnThreshold)
	}
	return &EmbeddingCache{
		provider: provider,
		clock:    clock,
		ttl:      ttl,
		maxSize:  maxSize,
		entries:  entries,
	}, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func (c *EmbeddingCache) expired(e cacheEntry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.storedAt) > c.ttl
}

// EmbedOne returns the cached vector for text or asks the provider on a miss.
// Provider errors are returned as-is and nothing is cached for them.
func (c *EmbeddingCache) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)

	c.mu.Lock()
	if e, ok := c.entries.Get(key); ok {
		if !c.expired(e, c.clock.Now()) {
			c.hits++
			c.mu.Unlock()
			return cloneVector(e.vector), nil
		}
		c.entries.Remove(key)
	}
	c.misses++
	c.mu.Unlock()

	vector, err := c.provider.EmbedOne(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries.Add(key, cacheEntry{vector: cloneVector(vector), storedAt: c.clock.Now()})
	c.mu.Unlock()

	return vector, nil
}

func (c *EmbeddingCache) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	return c.provider.EmbedMany(ctx, texts)
}

func (c *EmbeddingCache) Generate(ctx context.Context, prompt string) (string, error) {
	return c.provider.Generate(ctx, prompt)
}

func (c *EmbeddingCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    c.entries.Len(),
		MaxSize: c.maxSize,
	}
}

// Start starts the wrapped provider when it has a lifecycle.
func (c *EmbeddingCache) Start(ctx context.Context) error {
	if s, ok := c.provider.(Starter); ok {
		return s.Start(ctx)
	}
	return nil
}

// Stop logs the final statistics, drops every cached entry and stops the
// wrapped provider. Hit and miss counters are cumulative and survive.
func (c *EmbeddingCache) Stop(ctx context.Context) error {
	stats := c.Stats()
	logger.Info("Embedding cache stats",
		"hits", stats.Hits,
		"misses", stats.Misses,
		"hit_rate", fmt.Sprintf("%.2f%%", stats.HitRate()*100),
		"final_size", stats.Size,
	)

	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()

	if s, ok := c.provider.(Stopper); ok {
		return s.Stop(ctx)
	}
	return nil
}
