package dto

import (
	"telcodash/internal/models"

	"github.com/shopspring/decimal"
)

type DashboardResponse struct {
	Lines               map[string]int  `json:"lines"`
	TotalLines          int             `json:"total_lines"`
	CurrentPeriod       string          `json:"current_period"`
	CurrentMonthCost    decimal.Decimal `json:"current_month_cost" swaggertype:"string"`
	UnreadNotifications int             `json:"unread_notifications"`
	OpenSavings         decimal.Decimal `json:"open_savings" swaggertype:"string"`
	ActiveBudgets       int             `json:"active_budgets"`
	ExceededBudgets     int             `json:"exceeded_budgets"`
}

type ServiceStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=operational degraded outage maintenance"`
	Message string `json:"message" validate:"max=500"`
}

type ServiceStatusResponse struct {
	ServiceName string `json:"service_name"`
	Status      string `json:"status"`
	Message     string `json:"message"`
	UpdatedAt   string `json:"updated_at"`
}

func NewServiceStatusResponse(s models.ServiceStatus) ServiceStatusResponse {
	return ServiceStatusResponse{
		ServiceName: s.ServiceName,
		Status:      string(s.Status),
		Message:     s.Message,
		UpdatedAt:   formatTime(s.UpdatedAt),
	}
}

func NewServiceStatusResponses(items []models.ServiceStatus) []ServiceStatusResponse {
	out := make([]ServiceStatusResponse, len(items))
	for i, s := range items {
		out[i] = NewServiceStatusResponse(s)
	}
	return out
}
