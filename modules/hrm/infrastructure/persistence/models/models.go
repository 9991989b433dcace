package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	OrgID          uuid.UUID
	FirstName      string
	LastName       string
	Email          sql.NullString
	EmployeeNumber string
	AllocationID   uuid.UUID
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
