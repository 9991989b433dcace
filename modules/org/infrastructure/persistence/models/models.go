package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Organization struct {
	ID        uuid.UUID
	Name      string
	Code      sql.NullString
	Type      string
	ParentID  uuid.NullUUID
	SortOrder int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
