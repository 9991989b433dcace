package persistence

import (
	"github.com/kadrohq/kadro/modules/hrm/domain/aggregates/employee"
	"github.com/kadrohq/kadro/modules/hrm/infrastructure/persistence/models"
)

func toDomainEmployee(m *models.Employee) *employee.Employee {
	email := ""
	if m.Email.Valid {
		email = m.Email.String
	}
	return employee.Hydrate(
		m.ID,
		m.TenantID,
		m.OrgID,
		m.FirstName,
		m.LastName,
		email,
		m.EmployeeNumber,
		m.AllocationID,
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
