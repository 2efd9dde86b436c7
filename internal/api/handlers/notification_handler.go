package handlers

import (
	"context"

	"telcodash/internal/dto"
	"telcodash/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type NotificationHandler struct {
	notificationService NotificationService
	logger              *zap.Logger
}

func NewNotificationHandler(notificationService NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// ListNotifications godoc
// @Summary List notifications, newest first
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size"
// @Security Bearer
// @Success 200 {array} dto.NotificationResponse
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	unread := queryBool(c, "unread")
	items, err := h.notificationService.List(c.Context(), userID, unread != nil && *unread, queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list notifications")
	}
	return c.JSON(dto.NewNotificationResponses(items))
}

// UnreadCount godoc
// @Summary Number of unread notifications
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.UnreadCountResponse
// @Router /api/v1/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	n, err := h.notificationService.UnreadCount(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to count notifications")
	}
	return c.JSON(dto.UnreadCountResponse{Unread: n})
}

// MarkRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Security Bearer
// @Success 204
// @Router /api/v1/notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update notification")
	}
	if err := h.notificationService.MarkRead(c.Context(), userID, id); err != nil {
		return respondError(c, h.logger, err, "Failed to update notification")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead godoc
// @Summary Mark every notification read
// @Tags notifications
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.MarkAllReadResponse
// @Router /api/v1/notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	n, err := h.notificationService.MarkAllRead(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update notifications")
	}
	return c.JSON(dto.MarkAllReadResponse{Updated: n})
}

// DeleteNotification godoc
// @Summary Delete a notification
// @Tags notifications
// @Param id path string true "Notification ID"
// @Security Bearer
// @Success 204
// @Router /api/v1/notifications/{id} [delete]
func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to delete notification")
	}
	if err := h.notificationService.Delete(c.Context(), userID, id); err != nil {
		return respondError(c, h.logger, err, "Failed to delete notification")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
