package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/quizdeck/quiz-service/internal/auth"
	"github.com/quizdeck/quiz-service/internal/realtime"
	"github.com/quizdeck/quiz-service/internal/services"
	"github.com/quizdeck/quiz-service/internal/utils"
)

type HandlerManager struct {
	quizHandler         *QuizHandler
	attemptHandler      *AttemptHandler
	analyticsHandler    *AnalyticsHandler
	notificationHandler *NotificationHandler
	exportHandler       *ExportHandler
	wsHandler           *WSHandler

	verifier auth.TokenVerifier
	logger   utils.Logger
}

type Services struct {
	Quiz         services.QuizService
	Attempt      services.AttemptService
	Analytics    services.AnalyticsService
	Notification services.NotificationService
	Export       services.ExportService
	Import       services.ImportService
}

func NewHandlerManager(
	svc Services,
	hub *realtime.Hub,
	verifier auth.TokenVerifier,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		quizHandler:         NewQuizHandler(svc.Quiz, svc.Import, validator, logger),
		attemptHandler:      NewAttemptHandler(svc.Attempt, validator, logger),
		analyticsHandler:    NewAnalyticsHandler(svc.Analytics, logger),
		notificationHandler: NewNotificationHandler(svc.Notification, logger),
		exportHandler:       NewExportHandler(svc.Export, logger),
		wsHandler:           NewWSHandler(hub, verifier, logger),
		verifier:            verifier,
		logger:              logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// WebSocket endpoint authenticates on the socket, not via middleware.
	router.GET("/ws/notifications", hm.wsHandler.ServeNotifications)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.verifier, hm.logger))
	{
		companies := v1.Group("/companies/:company_id")
		{
			quizzes := companies.Group("/quizzes")
			{
				quizzes.POST("", hm.quizHandler.CreateQuiz)
				quizzes.GET("", hm.quizHandler.ListQuizzes)
				quizzes.POST("/import", hm.quizHandler.ImportQuizzes)
				quizzes.GET("/:quiz_id", hm.quizHandler.GetQuiz)
				quizzes.DELETE("/:quiz_id", hm.quizHandler.DeleteQuiz)

				quizzes.POST("/:quiz_id/submit", hm.attemptHandler.SubmitQuiz)
				quizzes.GET("/:quiz_id/responses", hm.attemptHandler.GetCachedResponses)
				quizzes.GET("/:quiz_id/responses/export", hm.exportHandler.ExportQuizResponses)
			}

			analytics := companies.Group("/analytics")
			{
				analytics.GET("/overview", hm.analyticsHandler.GetCompanyOverview)
				analytics.GET("/members", hm.analyticsHandler.GetCompanyMembers)
				analytics.GET("/quizzes", hm.analyticsHandler.GetCompanyQuizzes)
				analytics.GET("/me", hm.analyticsHandler.GetMyCompanyAnalytics)
			}
		}

		me := v1.Group("/me")
		{
			me.GET("/attempts", hm.attemptHandler.GetMyAttempts)
			me.GET("/attempts/recent", hm.attemptHandler.GetMyRecentAttempts)
			me.GET("/analytics", hm.analyticsHandler.GetMyOverallAnalytics)
			me.GET("/activity", hm.analyticsHandler.GetMyRecentActivity)
			me.GET("/quizzes/:quiz_id/analytics", hm.analyticsHandler.GetMyQuizAnalytics)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.GET("/unread-count", hm.notificationHandler.GetUnreadCount)
			notifications.PUT("/:notification_id/read", hm.notificationHandler.MarkRead)
			notifications.PUT("/read-all", hm.notificationHandler.MarkAllRead)
		}
	}
}
