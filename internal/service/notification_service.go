package service

import (
	"context"

	"telcodash/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService struct {
	notifications NotificationRepository
	logger        *zap.Logger
}

func NewNotificationService(notifications NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
	}
}

// List returns the newest notifications first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]models.Notification, error) {
	l, offset := pagination(page, limit)
	return s.notifications.ListByUser(ctx, userID, unreadOnly, l, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.notifications.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.notifications.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.notifications.Delete(ctx, id)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notifications.CountUnread(ctx, userID)
}

func (s *NotificationService) owned(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrNotOwner
	}
	return nil
}
