package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "promogen-go/internal/errors"
)

func writeValidationError(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{"message": msg, "type": "invalid_request_error"},
	})
}

// writeError maps engine errors onto client-facing responses. The key
// distinction for callers: "this organization cannot reach the provider
// right now" (no eligible credential, or every credential failed) versus
// a content-level rejection of this particular request.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Client disconnected; 499 in the nginx tradition.
		c.JSON(499, gin.H{
			"error": gin.H{"message": "request cancelled", "type": "cancelled"},
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error": gin.H{"message": "provider did not respond in time", "type": "timeout"},
		})
	case apperrors.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": gin.H{
				"message": "generation service unavailable for this organization",
				"type":    "unavailable_for_organization",
			},
		})
	case apperrors.IsMalformedResult(err):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": gin.H{"message": err.Error(), "type": "malformed_provider_result"},
		})
	default:
		var pc *apperrors.ProviderCallError
		if errors.As(err, &pc) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": gin.H{
					"message":     pc.Message,
					"type":        "provider_rejected",
					"status_code": pc.StatusCode,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"message": "internal error", "type": "internal_error"},
		})
	}
}
