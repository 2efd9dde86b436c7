package handlers

import (
	"context"

	"telcodash/internal/dto"
	"telcodash/internal/models"
	"telcodash/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RecommendationService interface {
	Generate(ctx context.Context, userID uuid.UUID) (*service.GenerateResult, error)
	List(ctx context.Context, userID uuid.UUID, applied *bool) ([]models.Recommendation, error)
	Apply(ctx context.Context, userID, id uuid.UUID) (*models.Recommendation, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type RecommendationHandler struct {
	recommendationService RecommendationService
	logger                *zap.Logger
}

func NewRecommendationHandler(recommendationService RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// GenerateRecommendations godoc
// @Summary Run the plan and data-sharing engines over all active lines
// @Description Suggestions whose title matches an open recommendation are skipped
// @Tags recommendations
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.GenerateRecommendationsResponse
// @Router /api/v1/recommendations/generate [post]
func (h *RecommendationHandler) GenerateRecommendations(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	res, err := h.recommendationService.Generate(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to generate recommendations")
	}
	return c.JSON(dto.GenerateRecommendationsResponse{
		Created: dto.NewRecommendationResponses(res.Created),
		Skipped: res.Skipped,
	})
}

// ListRecommendations godoc
// @Summary List recommendations
// @Tags recommendations
// @Produce json
// @Param applied query bool false "Filter by applied flag"
// @Security Bearer
// @Success 200 {array} dto.RecommendationResponse
// @Router /api/v1/recommendations [get]
func (h *RecommendationHandler) ListRecommendations(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	recs, err := h.recommendationService.List(c.Context(), userID, queryBool(c, "applied"))
	if err != nil {
		return respondError(c, h.logger, err, "Failed to list recommendations")
	}
	return c.JSON(dto.NewRecommendationResponses(recs))
}

// ApplyRecommendation godoc
// @Summary Apply a recommendation
// @Description Plan changes switch the line to the suggested plan
// @Tags recommendations
// @Produce json
// @Param id path string true "Recommendation ID"
// @Security Bearer
// @Success 200 {object} dto.RecommendationResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/recommendations/{id}/apply [post]
func (h *RecommendationHandler) ApplyRecommendation(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to apply recommendation")
	}
	rec, err := h.recommendationService.Apply(c.Context(), userID, id)
	if err != nil {
		return respondError(c, h.logger, err, "Failed to apply recommendation")
	}
	return c.JSON(dto.NewRecommendationResponse(*rec))
}

// DeleteRecommendation godoc
// @Summary Dismiss a recommendation
// @Tags recommendations
// @Param id path string true "Recommendation ID"
// @Security Bearer
// @Success 204
// @Router /api/v1/recommendations/{id} [delete]
func (h *RecommendationHandler) DeleteRecommendation(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "Failed to delete recommendation")
	}
	if err := h.recommendationService.Delete(c.Context(), userID, id); err != nil {
		return respondError(c, h.logger, err, "Failed to delete recommendation")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
