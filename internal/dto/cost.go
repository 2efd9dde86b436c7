package dto

import (
	"telcodash/internal/models"

	"github.com/shopspring/decimal"
)

type GenerateCostRequest struct {
	Month string `json:"month" validate:"required"`
	Year  int    `json:"year" validate:"required,gte=2000,lte=2100"`
}

type CostBreakdownResponse struct {
	ID        string          `json:"id"`
	Month     string          `json:"month"`
	Year      int             `json:"year"`
	TotalCost decimal.Decimal `json:"total_cost" swaggertype:"string"`
	UsageCosts
	UpdatedAt string `json:"updated_at"`
}

type CategoryShare struct {
	Amount     decimal.Decimal `json:"amount" swaggertype:"string"`
	Percentage float64         `json:"percentage"`
}

type OptimizationSummaryResponse struct {
	OpenRecommendations int                      `json:"open_recommendations"`
	PotentialSavings    decimal.Decimal          `json:"potential_savings" swaggertype:"string"`
	SavingsByCategory   map[string]CategoryShare `json:"savings_by_category"`
	LatestMonthCost     decimal.Decimal          `json:"latest_month_cost" swaggertype:"string"`
}

func NewCostBreakdownResponse(c models.CostBreakdown) CostBreakdownResponse {
	return CostBreakdownResponse{
		ID:        c.ID.String(),
		Month:     c.Month,
		Year:      c.Year,
		TotalCost: c.TotalCost,
		UsageCosts: UsageCosts{
			DataCost:    c.DataCost,
			CallsCost:   c.CallsCost,
			SMSCost:     c.SMSCost,
			RoamingCost: c.RoamingCost,
			OtherCost:   c.OtherCost,
		},
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

func NewCostBreakdownResponses(costs []models.CostBreakdown) []CostBreakdownResponse {
	out := make([]CostBreakdownResponse, len(costs))
	for i, c := range costs {
		out[i] = NewCostBreakdownResponse(c)
	}
	return out
}
