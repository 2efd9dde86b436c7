package handlers

import (
	"context"

	"telcodash/internal/dto"
	"telcodash/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DashboardService interface {
	Summary(ctx context.Context, userID uuid.UUID) (*dto.DashboardResponse, error)
}

type StatusService interface {
	List(ctx context.Context) ([]models.ServiceStatus, error)
	Upsert(ctx context.Context, name string, req *dto.ServiceStatusRequest) (*models.ServiceStatus, error)
}

type DashboardHandler struct {
	dashboardService DashboardService
	statusService    StatusService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService DashboardService, statusService StatusService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		statusService:    statusService,
		logger:           logger,
	}
}

// Dashboard godoc
// @Summary Account overview
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.DashboardResponse
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	summary, err := h.dashboardService.Summary(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to build dashboard")
	}
	return c.JSON(summary)
}

// ServiceStatus godoc
// @Summary Status of the carrier services
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {array} dto.ServiceStatusResponse
// @Router /api/v1/service-status [get]
func (h *DashboardHandler) ServiceStatus(c *fiber.Ctx) error {
	items, err := h.statusService.List(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "Failed to load service status")
	}
	return c.JSON(dto.NewServiceStatusResponses(items))
}

// UpdateServiceStatus godoc
// @Summary Set the status of a carrier service
// @Tags admin
// @Accept json
// @Produce json
// @Param name path string true "Service name"
// @Param request body dto.ServiceStatusRequest true "Status"
// @Security Bearer
// @Success 200 {object} dto.ServiceStatusResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /api/v1/admin/service-status/{name} [put]
func (h *DashboardHandler) UpdateServiceStatus(c *fiber.Ctx) error {
	var req dto.ServiceStatusRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to update service status")
	}
	status, err := h.statusService.Upsert(c.Context(), c.Params("name"), &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to update service status")
	}
	return c.JSON(dto.NewServiceStatusResponse(*status))
}
