package category

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Category, error)
	GetByCode(ctx context.Context, kind Kind, code string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Create(ctx context.Context, c *Category) (*Category, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	// IncrementSequence performs the serialized read-increment-write on the
	// category row (row-level lock) and returns the committed value. Two
	// concurrent calls for the same category must never return the same
	// value. An inactive category fails with ErrCategoryInactive.
	IncrementSequence(ctx context.Context, id uuid.UUID) (int64, error)
}
