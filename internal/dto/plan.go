package dto

import (
	"telcodash/internal/models"

	"github.com/shopspring/decimal"
)

type PlanRequest struct {
	Name      string          `json:"name" validate:"required,min=2,max=100"`
	DataLimit float64         `json:"data_limit" validate:"gte=0"`
	CallLimit float64         `json:"call_limit" validate:"gte=0"`
	SMSLimit  float64         `json:"sms_limit" validate:"gte=0"`
	Price     decimal.Decimal `json:"price" swaggertype:"string"`
	Features  []string        `json:"features" validate:"max=20,dive,required,max=100"`
}

type PlanResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	DataLimit float64         `json:"data_limit"`
	CallLimit float64         `json:"call_limit"`
	SMSLimit  float64         `json:"sms_limit"`
	Price     decimal.Decimal `json:"price" swaggertype:"string"`
	Features  []string        `json:"features"`
}

// PlanFit is one catalog entry measured against a line's usage.
type PlanFit struct {
	Plan             PlanResponse    `json:"plan"`
	IsCurrent        bool            `json:"is_current"`
	Fits             bool            `json:"fits"`
	Utilization      float64         `json:"utilization"`
	EstimatedOverage decimal.Decimal `json:"estimated_overage" swaggertype:"string"`
	MonthlyCost      decimal.Decimal `json:"monthly_cost" swaggertype:"string"`
}

type PlanComparisonResponse struct {
	LineID         string    `json:"line_id"`
	EffectiveUsage float64   `json:"effective_usage"`
	Trend          string    `json:"trend"`
	Plans          []PlanFit `json:"plans"`
}

func NewPlanResponse(p models.ServicePlan) PlanResponse {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return PlanResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		DataLimit: p.DataLimit,
		CallLimit: p.CallLimit,
		SMSLimit:  p.SMSLimit,
		Price:     p.Price,
		Features:  features,
	}
}

func NewPlanResponses(plans []models.ServicePlan) []PlanResponse {
	out := make([]PlanResponse, len(plans))
	for i, p := range plans {
		out[i] = NewPlanResponse(p)
	}
	return out
}
