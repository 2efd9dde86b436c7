package handlers

import (
	"context"

	"telcodash/internal/dto"
	"telcodash/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LineService interface {
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateLineRequest) (*models.TelecomLine, error)
	List(ctx context.Context, userID uuid.UUID, status string, page, limit int) ([]models.TelecomLine, int, error)
	Get(ctx context.Context, userID, lineID uuid.UUID) (*models.TelecomLine, error)
	Update(ctx context.Context, userID, lineID uuid.UUID, req *dto.UpdateLineRequest) (*models.TelecomLine, error)
	Delete(ctx context.Context, userID, lineID uuid.UUID) error
	Usage(ctx context.Context, userID, lineID uuid.UUID) ([]models.UsageRecord, error)
}

type LineHandler struct {
	lineService LineService
	logger      *zap.Logger
}

func NewLineHandler(lineService LineService, logger *zap.Logger) *LineHandler {
	return &LineHandler{
		lineService: lineService,
		logger:      logger,
	}
}

// CreateLine godoc
// @Summary Provision a telecom line
// @Tags lines
// @Accept json
// @Produce json
// @Param request body dto.CreateLineRequest true "Line"
// @Security Bearer
// @Success 201 {object} dto.LineResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/lines [post]
func (h *LineHandler) CreateLine(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CreateLineRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to create line")
	}

	line, err := h.lineService.Create(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create line")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewLineResponse(*line))
}

// ListLines godoc
// @Summary List lines
// @Tags lines
// @Produce json
// @Param status query string false "active, suspended or terminated"
// @Param page query int false "Page, from 1"
// @Param limit query int false "Page size, at most 100"
// @Security Bearer
// @Success 200 {object} dto.LineListResponse
// @Router /api/v1/lines [get]
func (h *LineHandler) ListLines(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 20)
	lines, total, err := h.lineService.List(c.Context(), userID, c.Query("status"), page, limit)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list lines")
	}

	return c.JSON(dto.LineListResponse{
		Lines: dto.NewLineResponses(lines),
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetLine godoc
// @Summary Get a line
// @Tags lines
// @Produce json
// @Param id path string true "Line ID"
// @Security Bearer
// @Success 200 {object} dto.LineResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/lines/{id} [get]
func (h *LineHandler) GetLine(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	lineID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load line")
	}

	line, err := h.lineService.Get(c.Context(), userID, lineID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load line")
	}
	return c.JSON(dto.NewLineResponse(*line))
}

// UpdateLine godoc
// @Summary Update a line
// @Tags lines
// @Accept json
// @Produce json
// @Param id path string true "Line ID"
// @Param request body dto.UpdateLineRequest true "Changed fields"
// @Security Bearer
// @Success 200 {object} dto.LineResponse
// @Router /api/v1/lines/{id} [put]
func (h *LineHandler) UpdateLine(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	lineID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update line")
	}

	var req dto.UpdateLineRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to update line")
	}

	line, err := h.lineService.Update(c.Context(), userID, lineID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update line")
	}
	return c.JSON(dto.NewLineResponse(*line))
}

// DeleteLine godoc
// @Summary Delete a line and its usage history
// @Tags lines
// @Param id path string true "Line ID"
// @Security Bearer
// @Success 204
// @Router /api/v1/lines/{id} [delete]
func (h *LineHandler) DeleteLine(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	lineID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to delete line")
	}

	if err := h.lineService.Delete(c.Context(), userID, lineID); err != nil {
		return respondError(c, h.logger, err, "Failed to delete line")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LineUsage godoc
// @Summary Usage history of a line
// @Tags lines
// @Produce json
// @Param id path string true "Line ID"
// @Security Bearer
// @Success 200 {array} dto.UsageResponse
// @Router /api/v1/lines/{id}/usage [get]
func (h *LineHandler) LineUsage(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	lineID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load usage")
	}

	records, err := h.lineService.Usage(c.Context(), userID, lineID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load usage")
	}
	return c.JSON(dto.NewUsageResponses(records))
}
