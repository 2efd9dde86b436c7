package handlers

import (
	"context"

	"telcodash/internal/dto"
	"telcodash/internal/engine"
	"telcodash/internal/models"
	"telcodash/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BudgetService interface {
	Create(ctx context.Context, userID uuid.UUID, req *dto.BudgetRequest) (*models.Budget, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Budget, error)
	Get(ctx context.Context, userID, budgetID uuid.UUID) (*models.Budget, error)
	Update(ctx context.Context, userID, budgetID uuid.UUID, req *dto.BudgetRequest) (*models.Budget, error)
	Delete(ctx context.Context, userID, budgetID uuid.UUID) error
	Status(ctx context.Context, userID uuid.UUID) ([]engine.BudgetEvaluation, error)
	CheckThresholds(ctx context.Context, userID uuid.UUID) (*service.ThresholdCheck, error)
}

type BudgetHandler struct {
	budgetService BudgetService
	logger        *zap.Logger
}

func NewBudgetHandler(budgetService BudgetService, logger *zap.Logger) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		logger:        logger,
	}
}

// CreateBudget godoc
// @Summary Create a budget for a line, department or the whole company
// @Tags budgets
// @Accept json
// @Produce json
// @Param request body dto.BudgetRequest true "Budget"
// @Security Bearer
// @Success 201 {object} dto.BudgetResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) CreateBudget(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req dto.BudgetRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to create budget")
	}

	budget, err := h.budgetService.Create(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to create budget")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewBudgetResponse(*budget))
}

// ListBudgets godoc
// @Summary List budgets
// @Tags budgets
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.BudgetResponse
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) ListBudgets(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	budgets, err := h.budgetService.List(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list budgets")
	}
	return c.JSON(dto.NewBudgetResponses(budgets))
}

// GetBudget godoc
// @Summary Get a budget
// @Tags budgets
// @Produce json
// @Param id path string true "Budget ID"
// @Security Bearer
// @Success 200 {object} dto.BudgetResponse
// @Router /api/v1/budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load budget")
	}
	budget, err := h.budgetService.Get(c.Context(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load budget")
	}
	return c.JSON(dto.NewBudgetResponse(*budget))
}

// UpdateBudget godoc
// @Summary Replace a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Param id path string true "Budget ID"
// @Param request body dto.BudgetRequest true "Budget"
// @Security Bearer
// @Success 200 {object} dto.BudgetResponse
// @Router /api/v1/budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update budget")
	}
	var req dto.BudgetRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to update budget")
	}
	budget, err := h.budgetService.Update(c.Context(), userID, id, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update budget")
	}
	return c.JSON(dto.NewBudgetResponse(*budget))
}

// DeleteBudget godoc
// @Summary Delete a budget
// @Tags budgets
// @Param id path string true "Budget ID"
// @Security Bearer
// @Success 204
// @Router /api/v1/budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to delete budget")
	}
	if err := h.budgetService.Delete(c.Context(), userID, id); err != nil {
		return respondError(c, h.logger, err, "Failed to delete budget")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BudgetStatus godoc
// @Summary Current spending of every active budget
// @Tags budgets
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.BudgetStatusResponse
// @Router /api/v1/budgets/status [get]
func (h *BudgetHandler) BudgetStatus(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	evals, err := h.budgetService.Status(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to evaluate budgets")
	}
	return c.JSON(dto.NewBudgetStatusResponses(evals))
}

// CheckThresholds godoc
// @Summary Evaluate budgets and raise alerts for exceeded ones
// @Tags budgets
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ThresholdCheckResponse
// @Router /api/v1/budgets/check [post]
func (h *BudgetHandler) CheckThresholds(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	check, err := h.budgetService.CheckThresholds(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to check budgets")
	}
	return c.JSON(dto.ThresholdCheckResponse{
		Checked:              check.Checked,
		Exceeded:             dto.NewBudgetStatusResponses(check.Exceeded),
		NotificationsCreated: check.Notifications,
	})
}
