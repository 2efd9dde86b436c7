package dto

import "telcodash/internal/models"

type NotificationResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

func NewNotificationResponses(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(items))
	for i, n := range items {
		out[i] = NotificationResponse{
			ID:        n.ID.String(),
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			IsRead:    n.IsRead,
			CreatedAt: formatTime(n.CreatedAt),
		}
	}
	return out
}
