package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Server-to-client frame types.
const (
	FrameConnectionEstablished = "connection_established"
	FrameNewNotification       = "new_notification"
	FramePong                  = "pong"
)

// PingPayload is the only inbound payload the server reacts to.
const PingPayload = "ping"

// AckFrame is sent once on the connection that just authenticated.
type AckFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// PongFrame answers an inbound ping.
type PongFrame struct {
	Type string `json:"type"`
}

// NotificationFrame carries one notification to a live connection.
type NotificationFrame struct {
	Type         string              `json:"type"`
	Notification NotificationPayload `json:"notification"`
}

type NotificationPayload struct {
	ID               uuid.UUID  `json:"id"`
	Message          string     `json:"message"`
	NotificationType string     `json:"notification_type"`
	IsRead           bool       `json:"is_read"`
	CreatedAt        time.Time  `json:"created_at"`
	RelatedEntityID  *uuid.UUID `json:"related_entity_id"`
}

func NewAckFrame(username string) AckFrame {
	return AckFrame{
		Type:    FrameConnectionEstablished,
		Message: "Connected to notifications for user " + username,
	}
}

func NewPongFrame() PongFrame {
	return PongFrame{Type: FramePong}
}

func NewNotificationFrame(payload NotificationPayload) NotificationFrame {
	return NotificationFrame{
		Type:         FrameNewNotification,
		Notification: payload,
	}
}
