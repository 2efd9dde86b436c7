package handlers

import (
	"context"

	"telcodash/internal/dto"
	"telcodash/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PlanService interface {
	List(ctx context.Context) ([]models.ServicePlan, error)
	Get(ctx context.Context, id uuid.UUID) (*models.ServicePlan, error)
	Create(ctx context.Context, req *dto.PlanRequest) (*models.ServicePlan, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.PlanRequest) (*models.ServicePlan, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Compare(ctx context.Context, userID, lineID uuid.UUID) (*dto.PlanComparisonResponse, error)
}

type PlanHandler struct {
	planService PlanService
	logger      *zap.Logger
}

func NewPlanHandler(planService PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		planService: planService,
		logger:      logger,
	}
}

// ListPlans godoc
// @Summary Service plan catalog, cheapest first
// @Tags plans
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.PlanResponse
// @Router /api/v1/plans [get]
func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.planService.List(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list plans")
	}
	return c.JSON(dto.NewPlanResponses(plans))
}

// GetPlan godoc
// @Summary Get a plan
// @Tags plans
// @Produce json
// @Param id path string true "Plan ID"
// @Security Bearer
// @Success 200 {object} dto.PlanResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/plans/{id} [get]
func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load plan")
	}
	plan, err := h.planService.Get(c.Context(), id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load plan")
	}
	return c.JSON(dto.NewPlanResponse(*plan))
}

// CreatePlan godoc
// @Summary Add a plan to the catalog (admin)
// @Tags plans
// @Accept json
// @Produce json
// @Param request body dto.PlanRequest true "Plan"
// @Security Bearer
// @Success 201 {object} dto.PlanResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/v1/admin/plans [post]
func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	var req dto.PlanRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to create plan")
	}
	plan, err := h.planService.Create(c.Context(), &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create plan")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewPlanResponse(*plan))
}

// UpdatePlan godoc
// @Summary Update a plan (admin)
// @Tags plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param request body dto.PlanRequest true "Plan"
// @Security Bearer
// @Success 200 {object} dto.PlanResponse
// @Router /api/v1/admin/plans/{id} [put]
func (h *PlanHandler) UpdatePlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update plan")
	}
	var req dto.PlanRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to update plan")
	}
	plan, err := h.planService.Update(c.Context(), id, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update plan")
	}
	return c.JSON(dto.NewPlanResponse(*plan))
}

// DeletePlan godoc
// @Summary Remove a plan (admin)
// @Tags plans
// @Param id path string true "Plan ID"
// @Security Bearer
// @Success 204
// @Router /api/v1/admin/plans/{id} [delete]
func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to delete plan")
	}
	if err := h.planService.Delete(c.Context(), id); err != nil {
		return respondError(c, h.logger, err, "Failed to delete plan")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ComparePlans godoc
// @Summary Catalog measured against a line's usage
// @Tags plans
// @Produce json
// @Param id path string true "Line ID"
// @Security Bearer
// @Success 200 {object} dto.PlanComparisonResponse
// @Router /api/v1/lines/{id}/plans/compare [get]
func (h *PlanHandler) ComparePlans(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	lineID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to compare plans")
	}
	cmp, err := h.planService.Compare(c.Context(), userID, lineID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to compare plans")
	}
	return c.JSON(cmp)
}
