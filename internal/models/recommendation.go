package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type RecommendationCategory string

const (
	CategoryPlanDowngrade RecommendationCategory = "plan_downgrade"
	CategoryPlanUpgrade   RecommendationCategory = "plan_upgrade"
	CategoryDataSharing   RecommendationCategory = "data_sharing"
)

// Recommendation is a persisted optimization suggestion. LineID and PlanID are set
// for plan changes; applying such a recommendation moves the line to PlanID.
type Recommendation struct {
	ID            uuid.UUID              `db:"id"`
	UserID        uuid.UUID              `db:"user_id"`
	LineID        *uuid.UUID             `db:"line_id"`
	PlanID        *uuid.UUID             `db:"plan_id"`
	Title         string                 `db:"title"`
	Description   string                 `db:"description"`
	SavingsAmount decimal.Decimal        `db:"savings_amount"`
	Priority      Priority               `db:"priority"`
	Category      RecommendationCategory `db:"category"`
	IsApplied     bool                   `db:"is_applied"`
	CreatedAt     time.Time              `db:"created_at"`
}
