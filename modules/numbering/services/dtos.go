package services

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/category"
	"github.com/kadrohq/kadro/pkg/composables"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateCategoryDTO struct {
	Kind string `validate:"required,min=1,max=64"`
	Code string `validate:"required,min=2,max=6"`
	Name string `validate:"required,min=1,max=255"`
}

func (d *CreateCategoryDTO) ToEntity(ctx context.Context) (*category.Category, error) {
	if err := validate.Struct(d); err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return category.New(tenantID, category.Kind(d.Kind), d.Code, d.Name)
}

type AssignTargetDTO struct {
	TargetKind string `validate:"required,min=1,max=64"`
	TargetID   string `validate:"required,min=1,max=64"`
}

type CreateRangeDTO struct {
	Start   string `validate:"required"`
	End     string `validate:"required"`
	Label   string `validate:"required,min=1,max=255"`
	Subnet  string `validate:"omitempty"`
	Gateway string `validate:"omitempty"`
}
