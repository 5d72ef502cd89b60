package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/auth"
	"github.com/quizdeck/quiz-service/internal/services"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER =====

// BaseHandler provides shared logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// handleServiceError maps service errors onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case services.IsUnauthorized(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})
	default:
		h.logger.LogError(err, "Unhandled service error",
			"method", c.Request.Method,
			"path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

// ===== SHARED CONTEXT HELPERS =====

const identityKey = "identity"

// identityFrom returns the authenticated identity set by the auth
// middleware, or aborts with 401.
func identityFrom(c *gin.Context) (*auth.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return nil, false
	}
	identity, ok := value.(*auth.Identity)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return nil, false
	}
	return identity, true
}

// uuidParam parses a path parameter as a UUID or aborts with 400.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: err.Error(),
		})
		return uuid.Nil, false
	}
	return id, true
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
