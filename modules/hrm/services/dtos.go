package services

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type HireEmployeeDTO struct {
	OrgID      uuid.UUID `validate:"required"`
	CategoryID uuid.UUID `validate:"required"`
	FirstName  string    `validate:"required,min=1,max=255"`
	LastName   string    `validate:"required,min=1,max=255"`
	Email      string    `validate:"omitempty,email"`
}
