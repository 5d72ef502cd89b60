package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, notification *models.Notification) error {
	return n.db.WithContext(ctx).Create(notification).Error
}

func (n *NotificationPostgreSQL) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return n.db.WithContext(ctx).CreateInBatches(notifications, 500).Error
}

func (n *NotificationPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := n.db.WithContext(ctx).First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (n *NotificationPostgreSQL) GetByUser(ctx context.Context, userID uuid.UUID, filters repositories.NotificationFilters) ([]*models.Notification, error) {
	query := n.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if filters.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var notifications []*models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (n *NotificationPostgreSQL) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (n *NotificationPostgreSQL) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (n *NotificationPostgreSQL) Update(ctx context.Context, notification *models.Notification) error {
	return n.db.WithContext(ctx).Save(notification).Error
}

func (n *NotificationPostgreSQL) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := n.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}
