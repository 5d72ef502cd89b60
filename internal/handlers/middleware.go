package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizdeck/quiz-service/internal/auth"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// AuthMiddleware verifies the Authorization bearer token and stores the
// resulting identity on the request context.
func AuthMiddleware(verifier auth.TokenVerifier, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("Token verification failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}
