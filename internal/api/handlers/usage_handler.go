package handlers

import (
	"context"

	"telcodash/internal/analytics"
	"telcodash/internal/dto"
	"telcodash/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UsageService interface {
	Ingest(ctx context.Context, userID uuid.UUID, req *dto.IngestUsageRequest) (*models.UsageRecord, error)
	Correct(ctx context.Context, userID, recordID uuid.UUID, req *dto.CorrectUsageRequest) (*models.UsageRecord, error)
	GenerateSample(ctx context.Context, userID, lineID uuid.UUID, months int) ([]models.UsageRecord, error)
	Trends(ctx context.Context, userID uuid.UUID, groupBy, start, end string) (analytics.GroupBy, []analytics.UsageGroup, error)
	Anomalies(ctx context.Context, userID uuid.UUID) ([]analytics.RatioAnomaly, error)
	LineAnomalies(ctx context.Context, userID, lineID uuid.UUID) ([]analytics.StdDevAnomaly, error)
	Patterns(ctx context.Context, userID, lineID uuid.UUID) (analytics.UsagePattern, error)
	StdDevMultiplier() float64
	RatioThreshold() float64
}

type UsageHandler struct {
	usageService UsageService
	logger       *zap.Logger
}

func NewUsageHandler(usageService UsageService, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
		logger:       logger,
	}
}

// IngestUsage godoc
// @Summary Record one month of usage for a line
// @Tags usage
// @Accept json
// @Produce json
// @Param request body dto.IngestUsageRequest true "Usage"
// @Security Bearer
// @Success 201 {object} dto.UsageResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/usage [post]
func (h *UsageHandler) IngestUsage(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req dto.IngestUsageRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to record usage")
	}

	rec, err := h.usageService.Ingest(c.Context(), userID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to record usage")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUsageResponse(*rec))
}

// CorrectUsage godoc
// @Summary Correct an existing usage record
// @Tags usage
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param request body dto.CorrectUsageRequest true "Corrected values"
// @Security Bearer
// @Success 200 {object} dto.UsageResponse
// @Router /api/v1/usage/{id} [put]
func (h *UsageHandler) CorrectUsage(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	recordID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to correct usage")
	}
	var req dto.CorrectUsageRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to correct usage")
	}

	rec, err := h.usageService.Correct(c.Context(), userID, recordID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to correct usage")
	}
	return c.JSON(dto.NewUsageResponse(*rec))
}

// GenerateSample godoc
// @Summary Fill recent months with synthetic usage
// @Tags usage
// @Accept json
// @Produce json
// @Param id path string true "Line ID"
// @Param request body dto.GenerateSampleRequest true "Months"
// @Security Bearer
// @Success 201 {array} dto.UsageResponse
// @Router /api/v1/lines/{id}/usage/sample [post]
func (h *UsageHandler) GenerateSample(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	lineID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to generate sample usage")
	}
	var req dto.GenerateSampleRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, h.logger, err, "Failed to generate sample usage")
	}

	records, err := h.usageService.GenerateSample(c.Context(), userID, lineID, req.Months)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to generate sample usage")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewUsageResponses(records))
}

// Trends godoc
// @Summary Aggregated usage per month, quarter or year
// @Tags usage
// @Produce json
// @Param group_by query string false "month (default), quarter or year"
// @Param start query string false "First period, Mon-YYYY"
// @Param end query string false "Last period, Mon-YYYY"
// @Security Bearer
// @Success 200 {object} dto.TrendsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/usage/trends [get]
func (h *UsageHandler) Trends(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	group, groups, err := h.usageService.Trends(c.Context(), userID, c.Query("group_by"), c.Query("start"), c.Query("end"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to aggregate usage")
	}
	if groups == nil {
		groups = []analytics.UsageGroup{}
	}
	return c.JSON(dto.TrendsResponse{GroupBy: string(group), Groups: groups})
}

// Anomalies godoc
// @Summary Months far above each line's average usage
// @Tags usage
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.AnomaliesResponse
// @Router /api/v1/usage/anomalies [get]
func (h *UsageHandler) Anomalies(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	anomalies, err := h.usageService.Anomalies(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to detect anomalies")
	}
	return c.JSON(dto.AnomaliesResponse{Threshold: h.usageService.RatioThreshold(), Anomalies: anomalies})
}

// LineAnomalies godoc
// @Summary Statistical outliers in a line's history
// @Tags usage
// @Produce json
// @Param id path string true "Line ID"
// @Security Bearer
// @Success 200 {object} dto.LineAnomaliesResponse
// @Router /api/v1/lines/{id}/anomalies [get]
func (h *UsageHandler) LineAnomalies(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	lineID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to detect anomalies")
	}

	anomalies, err := h.usageService.LineAnomalies(c.Context(), userID, lineID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to detect anomalies")
	}
	if anomalies == nil {
		anomalies = []analytics.StdDevAnomaly{}
	}
	return c.JSON(dto.LineAnomaliesResponse{
		LineID:     lineID.String(),
		Multiplier: h.usageService.StdDevMultiplier(),
		Anomalies:  anomalies,
	})
}

// Patterns godoc
// @Summary Usage trend of a line
// @Tags usage
// @Produce json
// @Param id path string true "Line ID"
// @Security Bearer
// @Success 200 {object} dto.LinePatternResponse
// @Router /api/v1/lines/{id}/patterns [get]
func (h *UsageHandler) Patterns(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	lineID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to analyze usage")
	}

	pattern, err := h.usageService.Patterns(c.Context(), userID, lineID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to analyze usage")
	}
	return c.JSON(dto.LinePatternResponse{LineID: lineID.String(), Pattern: pattern})
}
