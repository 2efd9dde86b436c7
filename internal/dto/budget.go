package dto

import (
	"telcodash/internal/engine"
	"telcodash/internal/models"

	"github.com/shopspring/decimal"
)

// BudgetRequest dates use YYYY-MM-DD. entity_id is ignored for company budgets.
type BudgetRequest struct {
	EntityType     string          `json:"entity_type" validate:"required,oneof=line department company"`
	EntityID       string          `json:"entity_id" validate:"max=100"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string"`
	Period         string          `json:"period" validate:"required,oneof=monthly quarterly yearly"`
	AlertThreshold float64         `json:"alert_threshold" validate:"required,gt=0,lte=100"`
	StartDate      string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate        string          `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type BudgetResponse struct {
	ID             string          `json:"id"`
	EntityType     string          `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string"`
	Period         string          `json:"period"`
	AlertThreshold float64         `json:"alert_threshold"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date,omitempty"`
}

type BudgetStatusResponse struct {
	Budget             BudgetResponse  `json:"budget"`
	From               string          `json:"from"`
	To                 string          `json:"to"`
	Spending           decimal.Decimal `json:"spending" swaggertype:"string"`
	Remaining          decimal.Decimal `json:"remaining" swaggertype:"string"`
	SpendingPercentage float64         `json:"spending_percentage"`
	Exceeded           bool            `json:"exceeded"`
}

type ThresholdCheckResponse struct {
	Checked              int                    `json:"checked"`
	Exceeded             []BudgetStatusResponse `json:"exceeded"`
	NotificationsCreated int                    `json:"notifications_created"`
}

func NewBudgetResponse(b models.Budget) BudgetResponse {
	return BudgetResponse{
		ID:             b.ID.String(),
		EntityType:     string(b.EntityType),
		EntityID:       b.EntityID,
		Amount:         b.Amount,
		Period:         string(b.Period),
		AlertThreshold: b.AlertThreshold,
		StartDate:      formatDate(&b.StartDate),
		EndDate:        formatDate(b.EndDate),
	}
}

func NewBudgetResponses(budgets []models.Budget) []BudgetResponse {
	out := make([]BudgetResponse, len(budgets))
	for i, b := range budgets {
		out[i] = NewBudgetResponse(b)
	}
	return out
}

func NewBudgetStatusResponse(e engine.BudgetEvaluation) BudgetStatusResponse {
	return BudgetStatusResponse{
		Budget:             NewBudgetResponse(e.Budget),
		From:               e.Window.From.String(),
		To:                 e.Window.To.String(),
		Spending:           e.Spending,
		Remaining:          e.Remaining,
		SpendingPercentage: e.SpendingPercentage,
		Exceeded:           e.Exceeded,
	}
}

func NewBudgetStatusResponses(evals []engine.BudgetEvaluation) []BudgetStatusResponse {
	out := make([]BudgetStatusResponse, len(evals))
	for i, e := range evals {
		out[i] = NewBudgetStatusResponse(e)
	}
	return out
}
