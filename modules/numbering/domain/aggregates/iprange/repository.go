package iprange

import (
	"context"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Range, error)
	List(ctx context.Context) ([]*Range, error)
	Create(ctx context.Context, r *Range) (*Range, error)
}

type AssignmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	GetByAddress(ctx context.Context, address string) (*Assignment, error)
	FindByStatus(ctx context.Context, rangeID uuid.UUID, status allocation.Status) ([]*Assignment, error)
	ListByRange(ctx context.Context, rangeID uuid.UUID) ([]*Assignment, error)
	Create(ctx context.Context, a *Assignment) (*Assignment, error)
	Update(ctx context.Context, a *Assignment) error
	// CountByRange returns per-status counts of issued assignments. The
	// range's total capacity is derived from its endpoints, not counted here.
	CountByRange(ctx context.Context, rangeID uuid.UUID) (inUse, retired int64, err error)
}
