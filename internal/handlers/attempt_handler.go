package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizdeck/quiz-service/internal/services"
	"github.com/quizdeck/quiz-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *utils.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	validator *utils.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// SubmitQuiz scores a complete submission and returns the result
// @Summary Submit quiz answers
// @Tags attempts
// @Accept json
// @Produce json
// @Param submission body services.SubmitQuizRequest true "Answers for every question"
// @Success 201 {object} services.AttemptResult
// @Failure 400 {object} ErrorResponse
// @Router /companies/{company_id}/quizzes/{quiz_id}/submit [post]
func (h *AttemptHandler) SubmitQuiz(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	var req services.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), companyID, quizID, &req, identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetCachedResponses returns the caller's live cached responses for a quiz
func (h *AttemptHandler) GetCachedResponses(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	responses, err := h.attemptService.GetCachedResponses(c.Request.Context(), identity.UserID, quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": responses, "count": len(responses)})
}

// GetMyAttempts returns the caller's attempt history
func (h *AttemptHandler) GetMyAttempts(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}

	attempts, err := h.attemptService.GetUserAttempts(c.Request.Context(), identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// GetMyRecentAttempts returns the caller's newest attempts
func (h *AttemptHandler) GetMyRecentAttempts(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	attempts, err := h.attemptService.GetRecentAttempts(c.Request.Context(), identity.UserID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}
