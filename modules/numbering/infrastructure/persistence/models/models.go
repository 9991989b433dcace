package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type AllocationCategory struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Kind      string
	Code      string
	Name      string
	Sequence  int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AllocationRecord struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	CategoryID     uuid.UUID
	FullIdentifier string
	Sequence       int64
	Status         string
	TargetKind     sql.NullString
	TargetID       sql.NullString
	AssignedAt     sql.NullTime
	RetiredAt      sql.NullTime
	RetiredReason  sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AddressRange struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	StartAddress string
	EndAddress   string
	Subnet       sql.NullString
	Gateway      sql.NullString
	Label        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AddressAssignment struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	RangeID       uuid.UUID
	Address       string
	Status        string
	TargetKind    sql.NullString
	TargetID      sql.NullString
	AssignedAt    sql.NullTime
	RetiredAt     sql.NullTime
	RetiredReason sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
