package organization

import (
	"context"

	"github.com/google/uuid"
)

type FindParams struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetByCode(ctx context.Context, code string) (*Organization, error)
	// GetChildren returns the active-and-inactive children of every parent in
	// one round trip; traversals feed it a whole BFS level at a time.
	GetChildren(ctx context.Context, parentIDs []uuid.UUID) ([]*Organization, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]*Organization, error)
	Create(ctx context.Context, org *Organization) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
	// NextSiblingSortOrder returns one past the highest sort order among the
	// children of parentID (or among roots when parentID is nil).
	NextSiblingSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error)
	// UpdateSortOrders renumbers the given siblings as one batch so duplicate
	// positions never become visible.
	UpdateSortOrders(ctx context.Context, orderedIDs []uuid.UUID) error
	DeactivateMany(ctx context.Context, ids []uuid.UUID) error
}
