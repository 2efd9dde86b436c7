package dto

import (
	"telcodash/internal/models"

	"github.com/shopspring/decimal"
)

type RecommendationResponse struct {
	ID            string          `json:"id"`
	LineID        string          `json:"line_id,omitempty"`
	PlanID        string          `json:"plan_id,omitempty"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	SavingsAmount decimal.Decimal `json:"savings_amount" swaggertype:"string"`
	Priority      string          `json:"priority"`
	Category      string          `json:"category"`
	IsApplied     bool            `json:"is_applied"`
	CreatedAt     string          `json:"created_at"`
}

type GenerateRecommendationsResponse struct {
	Created []RecommendationResponse `json:"created"`
	Skipped int                      `json:"skipped"`
}

func NewRecommendationResponse(r models.Recommendation) RecommendationResponse {
	return RecommendationResponse{
		ID:            r.ID.String(),
		LineID:        optionalID(r.LineID),
		PlanID:        optionalID(r.PlanID),
		Title:         r.Title,
		Description:   r.Description,
		SavingsAmount: r.SavingsAmount,
		Priority:      string(r.Priority),
		Category:      string(r.Category),
		IsApplied:     r.IsApplied,
		CreatedAt:     formatTime(r.CreatedAt),
	}
}

func NewRecommendationResponses(recs []models.Recommendation) []RecommendationResponse {
	out := make([]RecommendationResponse, len(recs))
	for i, r := range recs {
		out[i] = NewRecommendationResponse(r)
	}
	return out
}
