package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/realtime"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// NotificationService creates, fans out and manages per-user notifications.
type NotificationService interface {
	// NotifyQuizPublished writes one notification row per company member
	// except the creator, then pushes to every recipient's live
	// connections. Push failures are logged; they never fail the fan-out.
	NotifyQuizPublished(ctx context.Context, quizID uuid.UUID, quizTitle string, companyID uuid.UUID, companyName string, creatorID uuid.UUID) error

	GetUserNotifications(ctx context.Context, userID uuid.UUID, filters repositories.NotificationFilters) (*NotificationList, error)
	GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkRead is idempotent: marking an already-read notification again
	// succeeds without touching read_at.
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type notificationService struct {
	repo   repositories.Repository
	hub    *realtime.Hub
	logger utils.Logger
}

func NewNotificationService(repo repositories.Repository, hub *realtime.Hub, logger utils.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		hub:    hub,
		logger: logger,
	}
}

type NotificationList struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int64                  `json:"total"`
	UnreadCount   int64                  `json:"unread_count"`
}

// ===== FAN-OUT =====

func (s *notificationService) NotifyQuizPublished(ctx context.Context, quizID uuid.UUID, quizTitle string, companyID uuid.UUID, companyName string, creatorID uuid.UUID) error {
	memberIDs, err := s.repo.Company().GetMemberUserIDs(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to get company members: %w", err)
	}

	recipients := make([]uuid.UUID, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != creatorID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		s.logger.Debug("No recipients for quiz published notification", "quiz_id", quizID)
		return nil
	}

	message := fmt.Sprintf("New quiz '%s' is available in %s", quizTitle, companyName)
	notifications := make([]*models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		related := quizID
		notifications = append(notifications, &models.Notification{
			UserID:           userID,
			Message:          message,
			NotificationType: models.NotificationQuizCreated,
			RelatedEntityID:  &related,
		})
	}

	// One bulk insert; the rows must be durable before any push goes out.
	if err := s.repo.Notification().CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}

	s.logger.Info("Quiz published notifications created",
		"quiz_id", quizID,
		"company_id", companyID,
		"recipients", len(notifications))

	s.pushAll(ctx, notifications)
	return nil
}

// pushAll delivers frames to each recipient's live connections in parallel.
// A recipient with no connections is a no-op, never an error.
func (s *notificationService) pushAll(ctx context.Context, notifications []*models.Notification) {
	if s.hub == nil {
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, n := range notifications {
		notification := n
		g.Go(func() error {
			frame := realtime.NewNotificationFrame(realtime.NotificationPayload{
				ID:               notification.ID,
				Message:          notification.Message,
				NotificationType: string(notification.NotificationType),
				IsRead:           notification.IsRead,
				CreatedAt:        notification.CreatedAt,
				RelatedEntityID:  notification.RelatedEntityID,
			})
			s.hub.Push(ctx, notification.UserID, frame)
			return nil
		})
	}
	_ = g.Wait()
}

// ===== READS AND STATE =====

func (s *notificationService) GetUserNotifications(ctx context.Context, userID uuid.UUID, filters repositories.NotificationFilters) (*NotificationList, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	notifications, err := s.repo.Notification().GetByUser(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	total, err := s.repo.Notification().CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	unread, err := s.repo.Notification().CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &NotificationList{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
	}, nil
}

func (s *notificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.Notification().CountUnread(ctx, userID)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (*models.Notification, error) {
	notification, err := s.repo.Notification().GetByID(ctx, notificationID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	if notification.UserID != userID {
		return nil, ErrNotificationAccessDenied
	}

	if notification.IsRead {
		return notification, nil
	}

	now := time.Now().UTC()
	notification.IsRead = true
	notification.ReadAt = &now
	if err := s.repo.Notification().Update(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	return notification, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.Notification().MarkAllRead(ctx, userID)
}
