package models

import (
	"time"

	"github.com/google/uuid"
)

type ServiceState string

const (
	StateOperational ServiceState = "operational"
	StateDegraded    ServiceState = "degraded"
	StateOutage      ServiceState = "outage"
	StateMaintenance ServiceState = "maintenance"
)

func (s ServiceState) Valid() bool {
	switch s {
	case StateOperational, StateDegraded, StateOutage, StateMaintenance:
		return true
	}
	return false
}

type ServiceStatus struct {
	ID          uuid.UUID    `db:"id"`
	ServiceName string       `db:"service_name"`
	Status      ServiceState `db:"status"`
	Message     string       `db:"message"`
	UpdatedAt   time.Time    `db:"updated_at"`
}
