package dto

import (
	"telcodash/internal/analytics"
	"telcodash/internal/models"

	"github.com/shopspring/decimal"
)

type UsageCosts struct {
	DataCost    decimal.Decimal `json:"data_cost" swaggertype:"string"`
	CallsCost   decimal.Decimal `json:"calls_cost" swaggertype:"string"`
	SMSCost     decimal.Decimal `json:"sms_cost" swaggertype:"string"`
	RoamingCost decimal.Decimal `json:"roaming_cost" swaggertype:"string"`
	OtherCost   decimal.Decimal `json:"other_cost" swaggertype:"string"`
}

type IngestUsageRequest struct {
	LineID    string  `json:"line_id" validate:"required,uuid"`
	Month     string  `json:"month" validate:"required"`
	Year      int     `json:"year" validate:"required,gte=2000,lte=2100"`
	DataUsed  float64 `json:"data_used" validate:"gte=0"`
	CallsUsed float64 `json:"calls_used" validate:"gte=0"`
	SMSUsed   float64 `json:"sms_used" validate:"gte=0"`
	UsageCosts
}

type CorrectUsageRequest struct {
	DataUsed  float64 `json:"data_used" validate:"gte=0"`
	CallsUsed float64 `json:"calls_used" validate:"gte=0"`
	SMSUsed   float64 `json:"sms_used" validate:"gte=0"`
	UsageCosts
}

type GenerateSampleRequest struct {
	Months int `json:"months" validate:"required,gte=1,lte=36"`
}

type UsageResponse struct {
	ID        string          `json:"id"`
	LineID    string          `json:"line_id"`
	Month     string          `json:"month"`
	Year      int             `json:"year"`
	DataUsed  float64         `json:"data_used"`
	CallsUsed float64         `json:"calls_used"`
	SMSUsed   float64         `json:"sms_used"`
	TotalCost decimal.Decimal `json:"total_cost" swaggertype:"string"`
	UsageCosts
}

type TrendsResponse struct {
	GroupBy string                 `json:"group_by"`
	Groups  []analytics.UsageGroup `json:"groups"`
}

type AnomaliesResponse struct {
	Threshold float64                  `json:"threshold"`
	Anomalies []analytics.RatioAnomaly `json:"anomalies"`
}

type LineAnomaliesResponse struct {
	LineID     string                    `json:"line_id"`
	Multiplier float64                   `json:"multiplier"`
	Anomalies  []analytics.StdDevAnomaly `json:"anomalies"`
}

type LinePatternResponse struct {
	LineID  string                 `json:"line_id"`
	Pattern analytics.UsagePattern `json:"pattern"`
}

func NewUsageResponse(r models.UsageRecord) UsageResponse {
	return UsageResponse{
		ID:        r.ID.String(),
		LineID:    r.LineID.String(),
		Month:     r.Month,
		Year:      r.Year,
		DataUsed:  r.DataUsed,
		CallsUsed: r.CallsUsed,
		SMSUsed:   r.SMSUsed,
		TotalCost: r.TotalCost(),
		UsageCosts: UsageCosts{
			DataCost:    r.DataCost,
			CallsCost:   r.CallsCost,
			SMSCost:     r.SMSCost,
			RoamingCost: r.RoamingCost,
			OtherCost:   r.OtherCost,
		},
	}
}

func NewUsageResponses(records []models.UsageRecord) []UsageResponse {
	out := make([]UsageResponse, len(records))
	for i, r := range records {
		out[i] = NewUsageResponse(r)
	}
	return out
}
