package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationQuizCreated   NotificationType = "quiz_created"
	NotificationQuizReminder  NotificationType = "quiz_reminder"
	NotificationMemberJoined  NotificationType = "member_joined"
	NotificationSystemMessage NotificationType = "system_message"
)

// Notification is a durable per-user message. RelatedEntityID is a soft
// reference: deleting the related entity never cascades here.
type Notification struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`

	Message          string           `json:"message" gorm:"not null;size:500"`
	NotificationType NotificationType `json:"notification_type" gorm:"not null;size:50;index"`

	IsRead bool       `json:"is_read" gorm:"default:false;not null;index"`
	ReadAt *time.Time `json:"read_at"`

	RelatedEntityID *uuid.UUID     `json:"related_entity_id" gorm:"type:uuid"`
	Metadata        datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
