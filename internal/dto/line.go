package dto

import "telcodash/internal/models"

type CreateLineRequest struct {
	PhoneNumber  string  `json:"phone_number" validate:"required,e164"`
	AssignedTo   string  `json:"assigned_to" validate:"max=100"`
	Department   string  `json:"department" validate:"max=100"`
	PlanID       string  `json:"plan_id" validate:"omitempty,uuid"`
	MonthlyLimit float64 `json:"monthly_limit" validate:"gte=0"`
	CurrentUsage float64 `json:"current_usage" validate:"gte=0"`
	Status       string  `json:"status" validate:"omitempty,oneof=active suspended terminated"`
}

// UpdateLineRequest changes only the fields that are present.
// An empty plan_id detaches the line from its plan.
type UpdateLineRequest struct {
	AssignedTo   *string  `json:"assigned_to" validate:"omitempty,max=100"`
	Department   *string  `json:"department" validate:"omitempty,max=100"`
	PlanID       *string  `json:"plan_id" validate:"omitempty"`
	MonthlyLimit *float64 `json:"monthly_limit" validate:"omitempty,gte=0"`
	Status       *string  `json:"status" validate:"omitempty,oneof=active suspended terminated"`
}

type LineResponse struct {
	ID           string  `json:"id"`
	PhoneNumber  string  `json:"phone_number"`
	AssignedTo   string  `json:"assigned_to"`
	Department   string  `json:"department"`
	PlanID       string  `json:"plan_id,omitempty"`
	MonthlyLimit float64 `json:"monthly_limit"`
	CurrentUsage float64 `json:"current_usage"`
	Utilization  float64 `json:"utilization"`
	Status       string  `json:"status"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type LineListResponse struct {
	Lines []LineResponse `json:"lines"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func NewLineResponse(l models.TelecomLine) LineResponse {
	var utilization float64
	if l.MonthlyLimit > 0 {
		utilization = l.CurrentUsage / l.MonthlyLimit * 100
	}
	return LineResponse{
		ID:           l.ID.String(),
		PhoneNumber:  l.PhoneNumber,
		AssignedTo:   l.AssignedTo,
		Department:   l.Department,
		PlanID:       optionalID(l.PlanID),
		MonthlyLimit: l.MonthlyLimit,
		CurrentUsage: l.CurrentUsage,
		Utilization:  utilization,
		Status:       string(l.Status),
		CreatedAt:    formatTime(l.CreatedAt),
		UpdatedAt:    formatTime(l.UpdatedAt),
	}
}

func NewLineResponses(lines []models.TelecomLine) []LineResponse {
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		out[i] = NewLineResponse(l)
	}
	return out
}
