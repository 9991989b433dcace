package employee

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	GetByNumber(ctx context.Context, employeeNumber string) (*Employee, error)
	// FindByOrgIDs lists employees attached to any of the given organization
	// nodes. An empty id set matches no rows.
	FindByOrgIDs(ctx context.Context, orgIDs []uuid.UUID) ([]*Employee, error)
	Create(ctx context.Context, e *Employee) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
}
