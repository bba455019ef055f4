package routes

import (
	"context"
	"net/http"

	"findocbot/internal/config"
	"findocbot/models"
	"findocbot/services"
	"findocbot/utils"

	"github.com/gin-gonic/gin"
)

// Searcher is the retrieval use case.
type Searcher interface {
	Execute(ctx context.Context, query string, topK int) ([]services.SearchResult, error)
}

func SetupSearchRoutes(router *gin.Engine, cfg *config.Config, search Searcher) {
	router.POST("/search", func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidInput(c, err)
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		results, err := search.Execute(ctx, req.Query, resolveTopK(req.TopK, cfg.DefaultTopK))
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, services.ToChunkResponses(results))
	})
}
