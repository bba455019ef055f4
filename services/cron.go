package services

import (
	"fmt"
	"time"

	"findocbot/internal/ai"
	"findocbot/internal/logger"

	"github.com/go-co-op/gocron"
)

const cacheStatsTag = "cache-stats"

// CronService runs periodic housekeeping jobs.
type CronService struct {
	scheduler *gocron.Scheduler
}

func NewCronService() *CronService {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &CronService{scheduler: s}
}

// ScheduleCacheStats logs embedding cache statistics every interval.
func (c *CronService) ScheduleCacheStats(interval time.Duration, stats func() ai.CacheStats) error {
	if interval <= 0 {
		return fmt.Errorf("cache stats interval must be positive, got %s", interval)
	}
	_, err := c.scheduler.Every(interval).Tag(cacheStatsTag).Do(func() {
		LogCacheStats(stats())
	})
	return err
}

// LogCacheStats writes one structured line with the cache counters.
func LogCacheStats(s ai.CacheStats) {
	logger.Info("Embedding cache stats",
		"hits", s.Hits,
		"misses", s.Misses,
		"size", s.Size,
		"max_size", s.MaxSize,
		"hit_rate", s.HitRate(),
	)
}

// Jobs returns the number of scheduled jobs.
func (c *CronService) Jobs() int {
	return len(c.scheduler.Jobs())
}

func (c *CronService) Start() {
	c.scheduler.StartAsync()
}

func (c *CronService) Stop() {
	c.scheduler.Stop()
}
