package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServicePlan is shared catalog data. DataLimit is in GB, CallLimit in minutes.
type ServicePlan struct {
	ID        uuid.UUID       `db:"id"`
	Name      string          `db:"name"`
	DataLimit float64         `db:"data_limit"`
	CallLimit float64         `db:"call_limit"`
	SMSLimit  float64         `db:"sms_limit"`
	Price     decimal.Decimal `db:"price"`
	Features  []string        `db:"features"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}
