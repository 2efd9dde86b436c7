package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationAlert   NotificationType = "alert"
	NotificationSuccess NotificationType = "success"
)

type Notification struct {
	ID        uuid.UUID        `db:"id"`
	UserID    uuid.UUID        `db:"user_id"`
	Title     string           `db:"title"`
	Message   string           `db:"message"`
	Type      NotificationType `db:"type"`
	IsRead    bool             `db:"is_read"`
	CreatedAt time.Time        `db:"created_at"`
}
