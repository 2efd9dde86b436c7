package models

import (
	"time"

	"github.com/google/uuid"
)

type LineStatus string

const (
	LineActive     LineStatus = "active"
	LineSuspended  LineStatus = "suspended"
	LineTerminated LineStatus = "terminated"
)

func (s LineStatus) Valid() bool {
	switch s {
	case LineActive, LineSuspended, LineTerminated:
		return true
	}
	return false
}

// TelecomLine is a provisioned phone number. MonthlyLimit and CurrentUsage are in GB.
type TelecomLine struct {
	ID           uuid.UUID  `db:"id"`
	UserID       uuid.UUID  `db:"user_id"`
	PhoneNumber  string     `db:"phone_number"`
	AssignedTo   string     `db:"assigned_to"`
	Department   string     `db:"department"`
	PlanID       *uuid.UUID `db:"plan_id"`
	MonthlyLimit float64    `db:"monthly_limit"`
	CurrentUsage float64    `db:"current_usage"`
	Status       LineStatus `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}
