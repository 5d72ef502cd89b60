package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizdeck/quiz-service/internal/services"
	"github.com/quizdeck/quiz-service/internal/utils"
)

type AnalyticsHandler struct {
	BaseHandler
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService, logger utils.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		BaseHandler:      NewBaseHandler(logger),
		analyticsService: analyticsService,
	}
}

// GetMyOverallAnalytics returns the caller's cross-company statistics
func (h *AnalyticsHandler) GetMyOverallAnalytics(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}

	result, err := h.analyticsService.GetUserOverallAnalytics(c.Request.Context(), identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMyRecentActivity returns the caller's newest attempts for display
func (h *AnalyticsHandler) GetMyRecentActivity(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.analyticsService.GetUserRecentAttempts(c.Request.Context(), identity.UserID, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMyQuizAnalytics returns the caller's history on one quiz with a
// weekly performance trend
func (h *AnalyticsHandler) GetMyQuizAnalytics(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	result, err := h.analyticsService.GetUserQuizAnalytics(c.Request.Context(), identity.UserID, quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCompanyOverview returns company-wide aggregates
func (h *AnalyticsHandler) GetCompanyOverview(c *gin.Context) {
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}

	result, err := h.analyticsService.GetCompanyOverviewAnalytics(c.Request.Context(), companyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCompanyMembers returns per-member statistics for a company
func (h *AnalyticsHandler) GetCompanyMembers(c *gin.Context) {
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}

	result, err := h.analyticsService.GetCompanyMembersAnalytics(c.Request.Context(), companyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCompanyQuizzes returns per-quiz statistics including completion rates
func (h *AnalyticsHandler) GetCompanyQuizzes(c *gin.Context) {
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}

	result, err := h.analyticsService.GetCompanyQuizzesAnalytics(c.Request.Context(), companyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMyCompanyAnalytics returns the caller's statistics within one company
func (h *AnalyticsHandler) GetMyCompanyAnalytics(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}

	result, err := h.analyticsService.GetUserInCompanyAnalytics(c.Request.Context(), companyID, identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
