package handlers

import (
	"context"
	"strconv"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CostService interface {
	GenerateForMonth(ctx context.Context, userID uuid.UUID, month string, year int) (*models.CostBreakdown, error)
	GetCostByCategory(ctx context.Context, userID uuid.UUID, month string, year int) (*models.CostBreakdown, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.CostBreakdown, error)
	OptimizationSummary(ctx context.Context, userID uuid.UUID) (*dto.OptimizationSummaryResponse, error)
}

type CostHandler struct {
	costService CostService
	logger      *zap.Logger
}

func NewCostHandler(costService CostService, logger *zap.Logger) *CostHandler {
	return &CostHandler{
		costService: costService,
		logger:      logger,
	}
}

// GenerateCosts godoc
// @Summary Build the cost breakdown of a month from usage history
// @Description Idempotent: running it again replaces the stored totals
// @Tags costs
// @Accept json
// @Produce json
// @Param request body dto.GenerateCostRequest true "Month"
// @Security Bearer
// @Success 200 {object} dto.CostBreakdownResponse
// @Router /api/v1/costs/generate [post]
func (h *CostHandler) GenerateCosts(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req dto.GenerateCostRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to generate costs")
	}

	cost, err := h.costService.GenerateForMonth(c.Context(), userID, req.Month, req.Year)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to generate costs")
	}
	return c.JSON(dto.NewCostBreakdownResponse(*cost))
}

// GetCosts godoc
// @Summary Cost breakdown by category for a month
// @Tags costs
// @Produce json
// @Param year path int true "Year"
// @Param month path string true "Month name or number"
// @Security Bearer
// @Success 200 {object} dto.CostBreakdownResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/costs/{year}/{month} [get]
func (h *CostHandler) GetCosts(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return respondError(c, h.logger, apperror.Invalid("year", "must be a number"), "Failed to load costs")
	}

	cost, err := h.costService.GetCostByCategory(c.Context(), userID, c.Params("month"), year)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load costs")
	}
	return c.JSON(dto.NewCostBreakdownResponse(*cost))
}

// CostHistory godoc
// @Summary All stored monthly breakdowns, oldest first
// @Tags costs
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.CostBreakdownResponse
// @Router /api/v1/costs/history [get]
func (h *CostHandler) CostHistory(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	costs, err := h.costService.History(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load cost history")
	}
	return c.JSON(dto.NewCostBreakdownResponses(costs))
}

// OptimizationSummary godoc
// @Summary Savings available from open recommendations
// @Tags costs
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.OptimizationSummaryResponse
// @Router /api/v1/costs/summary [get]
func (h *CostHandler) OptimizationSummary(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	summary, err := h.costService.OptimizationSummary(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to build optimization summary")
	}
	return c.JSON(summary)
}
