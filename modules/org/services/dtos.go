package services

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/org/domain/aggregates/organization"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateOrganizationDTO struct {
	Name     string     `validate:"required,min=1,max=255"`
	Code     string     `validate:"omitempty,min=2,max=16"`
	Type     string     `validate:"omitempty,oneof=company division department team"`
	ParentID *uuid.UUID `validate:"omitempty"`
}

func (d *CreateOrganizationDTO) ToEntity() (*organization.Organization, error) {
	if err := validate.Struct(d); err != nil {
		return nil, err
	}
	opts := []organization.Option{
		organization.WithParentID(d.ParentID),
	}
	if d.Code != "" {
		opts = append(opts, organization.WithCode(d.Code))
	}
	if d.Type != "" {
		opts = append(opts, organization.WithType(organization.Type(d.Type)))
	}
	return organization.New(d.Name, opts...), nil
}
