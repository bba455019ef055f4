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

// Asker is the answer use case.
type Asker interface {
	Execute(ctx context.Context, sessionID, question string, topK int) (*services.AskResult, error)
}

func SetupChatRoutes(router *gin.Engine, cfg *config.Config, answer Asker) {
	router.POST("/ask", func(c *gin.Context) {
		var req models.AskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalidInput(c, err)
			return
		}

		ctx, cancel := utils.WithGenerationTimeout(c.Request.Context())
		defer cancel()

		result, err := answer.Execute(ctx, req.SessionID, req.Question, resolveTopK(req.TopK, cfg.DefaultTopK))
		if err != nil {
			respondServiceError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.AskResponse{
			Answer:  result.Answer,
			Sources: services.ToChunkResponses(result.Sources),
		})
	})
}
