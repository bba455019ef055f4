package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"findocbot/internal/ai"
	"findocbot/internal/config"
	"findocbot/internal/database"
	"findocbot/internal/logger"
	"findocbot/internal/queue"
	"findocbot/internal/telemetry"
	"findocbot/services"
	"findocbot/utils"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const ServiceName = "findocbot"

// openBackends is replaced in tests to observe cleanup.
var openBackends = database.Open

// Container owns every long-lived dependency of the service.
type Container struct {
	Config   *config.Config
	Metrics  *telemetry.Metrics
	Cache    *ai.EmbeddingCache
	Backends *database.Backends

	Upload *services.UploadService
	Search *services.SearchService
	Answer *services.AnswerService
	Cron   *services.CronService

	MetricsHandler http.Handler

	// Set only when the matching feature is enabled.
	Redis     *redis.Client
	Queue     *asynq.Client
	Inspector *asynq.Inspector

	shutdownTracer func(context.Context)
}

// New wires the container from configuration. Providers are not contacted
// until Start. On error everything opened so far is released.
func New(ctx context.Context, cfg *config.Config) (_ *Container, err error) {
	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			if releaseErr := c.release(ctx); releaseErr != nil {
				logger.Warn("Failed to release partially built container", "error", releaseErr)
			}
		}
	}()

	if cfg.OTELEnabled {
		shutdown, err := telemetry.InitTracer(ctx, ServiceName, cfg.OTELEndpoint, cfg.GinMode)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			c.shutdownTracer = shutdown
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}
	c.Metrics = metrics

	provider, err := ai.NewProvider(cfg, metrics)
	if err != nil {
		return nil, err
	}
	c.Cache, err = ai.NewEmbeddingCache(provider, cfg.EmbeddingCacheSize, cfg.EmbeddingCacheTTL, utils.SystemClock{})
	if err != nil {
		return nil, err
	}
	c.MetricsHandler = telemetry.Handler(telemetry.NewCacheRegistry(func() telemetry.CacheSnapshot {
		s := c.Cache.Stats()
		return telemetry.CacheSnapshot{Hits: s.Hits, Misses: s.Misses, Size: s.Size, MaxSize: s.MaxSize}
	}))

	chunker, err := services.NewChunker(services.ChunkerOptions{
		ChunkTokens:    cfg.ChunkTokens,
		OverlapRatio:   cfg.ChunkOverlapRatio,
		MinChunkTokens: cfg.MinChunkTokens,
	})
	if err != nil {
		return nil, err
	}

	c.Backends, err = openBackends(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ids := utils.UUIDGenerator{}
	clock := utils.SystemClock{}
	c.Search = services.NewSearchService(c.Cache, c.Backends.Chunks)
	c.Upload = services.NewUploadService(services.UploadServiceDeps{
		Extractor: services.NewPDFExtractor(),
		Chunker:   chunker,
		Provider:  c.Cache,
		Documents: c.Backends.Records,
		Chunks:    c.Backends.Chunks,
		Clock:     clock,
		IDs:       ids,
		Metrics:   metrics,
	})
	c.Answer = services.NewAnswerService(services.AnswerServiceDeps{
		Provider:        c.Cache,
		Search:          c.Search,
		History:         c.Backends.Records,
		Clock:           clock,
		IDs:             ids,
		MaxHistoryPairs: cfg.MaxHistoryPairs,
		Metrics:         metrics,
	})

	c.Cron = services.NewCronService()
	if cfg.CacheStatsInterval > 0 {
		if err := c.Cron.ScheduleCacheStats(cfg.CacheStatsInterval, c.Cache.Stats); err != nil {
			return nil, err
		}
	}

	if cfg.RateLimitEnabled {
		c.Redis, err = config.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	if cfg.AsyncIngestionEnabled {
		opt, err := queue.RedisConnOpt(cfg)
		if err != nil {
			return nil, err
		}
		c.Queue = asynq.NewClient(opt)
		c.Inspector = asynq.NewInspector(opt)
	}

	return c, nil
}

// Start opens the provider and starts background jobs.
func (c *Container) Start(ctx context.Context) error {
	if err := c.Cache.Start(ctx); err != nil {
		return fmt.Errorf("failed to start model provider: %w", err)
	}
	c.Cron.Start()
	logger.Info("Container started",
		"provider", c.Config.ModelProvider,
		"store", c.Config.StoreBackend,
		"vectors", c.Config.VectorBackend,
		"async_ingestion", c.Queue != nil,
	)
	return nil
}

// Shutdown releases resources in reverse order of creation.
func (c *Container) Shutdown(ctx context.Context) error {
	return c.release(ctx)
}

// release closes whatever has been set so far, so it also serves a
// container that New abandoned halfway.
func (c *Container) release(ctx context.Context) error {
	var errs []error

	if c.Cron != nil {
		c.Cron.Stop()
	}
	if c.Inspector != nil {
		errs = append(errs, c.Inspector.Close())
	}
	if c.Queue != nil {
		errs = append(errs, c.Queue.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Cache != nil {
		errs = append(errs, c.Cache.Stop(ctx))
	}
	if c.Backends != nil {
		errs = append(errs, c.Backends.Close(ctx))
	}
	if c.shutdownTracer != nil {
		c.shutdownTracer(ctx)
	}

	return errors.Join(errs...)
}

// Ping checks the record store.
func (c *Container) Ping(ctx context.Context) error {
	return c.Backends.Records.Ping(ctx)
}
