package routes

import (
	"context"
	"net/http"
	"time"

	"findocbot/internal/ai"
	"findocbot/utils"

	"github.com/gin-gonic/gin"
)

// SetupSystemRoutes registers health, readiness, cache stats and metrics.
// ping may be nil, in which case /ready always succeeds.
func SetupSystemRoutes(router *gin.Engine, stats func() ai.CacheStats, metrics http.Handler, ping func(context.Context) error) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	router.GET("/ready", func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := utils.WithShortTimeout(c.Request.Context())
			defer cancel()
			if err := ping(ctx); err != nil {
				utils.RespondWithError(c, http.StatusServiceUnavailable, "not_ready",
					"Storage is not reachable", gin.H{"error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	router.GET("/cache/stats", func(c *gin.Context) {
		s := stats()
		c.JSON(http.StatusOK, gin.H{
			"hits":     s.Hits,
			"misses":   s.Misses,
			"size":     s.Size,
			"max_size": s.MaxSize,
			"hit_rate": s.HitRate(),
		})
	})

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
}
