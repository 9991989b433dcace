package persistence

import (
	"github.com/kadrohq/kadro/modules/org/domain/aggregates/organization"
	"github.com/kadrohq/kadro/modules/org/infrastructure/persistence/models"
)

func toDomainOrganization(m *models.Organization) *organization.Organization {
	opts := []organization.Option{
		organization.WithID(m.ID),
		organization.WithType(organization.Type(m.Type)),
		organization.WithSortOrder(m.SortOrder),
		organization.WithIsActive(m.IsActive),
		organization.WithCreatedAt(m.CreatedAt),
		organization.WithUpdatedAt(m.UpdatedAt),
	}
	if m.Code.Valid {
		opts = append(opts, organization.WithCode(m.Code.String))
	}
	if m.ParentID.Valid {
		parentID := m.ParentID.UUID
		opts = append(opts, organization.WithParentID(&parentID))
	}
	return organization.New(m.Name, opts...)
}
