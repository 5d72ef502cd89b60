package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error

	// CreateBatch inserts all rows in one bulk statement, not N single-row
	// writes.
	CreateBatch(ctx context.Context, notifications []*models.Notification) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)

	// GetByUser returns notifications newest first.
	GetByUser(ctx context.Context, userID uuid.UUID, filters NotificationFilters) ([]*models.Notification, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	Update(ctx context.Context, notification *models.Notification) error

	// MarkAllRead flips every unread notification for the user and returns
	// the number of rows changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
