package allocation

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByFullIdentifier(ctx context.Context, fullID string) (*Record, error)
	FindByStatus(ctx context.Context, categoryID uuid.UUID, status Status) ([]*Record, error)
	Create(ctx context.Context, r *Record) (*Record, error)
	Update(ctx context.Context, r *Record) error
	// CountByCategory returns total and per-status counts for one category.
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (total, inUse, retired int64, err error)
}
