package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/category"
	"github.com/kadrohq/kadro/pkg/composables"
)

type CategoryService struct {
	repo category.Repository
}

func NewCategoryService(repo category.Repository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*category.Category, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *CategoryService) List(ctx context.Context) ([]*category.Category, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*category.Category, error) {
		return s.repo.List(txCtx)
	})
}

func (s *CategoryService) Create(ctx context.Context, data *CreateCategoryDTO) (*category.Category, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*category.Category, error) {
		entity, err := data.ToEntity(txCtx)
		if err != nil {
			return nil, err
		}
		return s.repo.Create(txCtx, entity)
	})
}

// Deactivate stops a category from issuing; existing records keep referencing
// it, so categories are never deleted.
func (s *CategoryService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.repo.Deactivate(txCtx, id)
	})
}
