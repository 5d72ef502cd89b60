package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"github.com/quizdeck/quiz-service/internal/services"
	"github.com/quizdeck/quiz-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler:         NewBaseHandler(logger),
		notificationService: notificationService,
	}
}

// ListNotifications returns the caller's notifications, newest first
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	unreadOnly := c.Query("unread_only") == "true"

	list, err := h.notificationService.GetUserNotifications(c.Request.Context(), identity.UserID, repositories.NotificationFilters{
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetUnreadCount returns how many unread notifications the caller has
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}

	count, err := h.notificationService.GetUnreadCount(c.Request.Context(), identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead marks one notification as read; repeat calls are no-ops
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	notificationID, ok := uuidParam(c, "notification_id")
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(c.Request.Context(), notificationID, identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// MarkAllRead flips every unread notification for the caller
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}

	changed, err := h.notificationService.MarkAllRead(c.Request.Context(), identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked_read": changed})
}
