package routes

import (
	"context"
	"errors"
	"net/http"

	"findocbot/internal/ai"
	"findocbot/services"
	"findocbot/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps use-case errors onto the error envelope: input
// problems are 400, everything else is a dependency failure.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidQuery):
		utils.RespondWithBadRequest(c, "invalid_query", err.Error(), nil)
	case errors.Is(err, services.ErrEmptyDocument):
		utils.RespondWithBadRequest(c, "empty_document", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidPDF):
		utils.RespondWithBadRequest(c, "invalid_pdf", err.Error(), nil)
	case errors.Is(err, ai.ErrProviderUnavailable):
		_ = c.Error(err)
		utils.RespondWithError(c, http.StatusServiceUnavailable, "provider_unavailable",
			"The model provider is temporarily unavailable", nil)
	case errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		utils.RespondWithError(c, http.StatusGatewayTimeout, "timeout",
			"The request took too long to complete", nil)
	default:
		_ = c.Error(err)
		utils.RespondWithInternalError(c, "Request failed", gin.H{"error": err.Error()})
	}
}

func respondInvalidInput(c *gin.Context, err error) {
	utils.RespondWithBadRequest(c, "invalid_input", "Invalid request data", gin.H{"error": err.Error()})
}

func resolveTopK(requested *int, fallback int) int {
	if requested == nil {
		return fallback
	}
	return *requested
}
