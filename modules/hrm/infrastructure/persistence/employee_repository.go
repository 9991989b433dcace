package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/hrm/domain/aggregates/employee"
	"github.com/kadrohq/kadro/modules/hrm/infrastructure/persistence/models"
	"github.com/kadrohq/kadro/pkg/composables"
	"github.com/kadrohq/kadro/pkg/mapping"
)

const employeeFindQuery = `
	SELECT id, tenant_id, org_id, first_name, last_name, email,
	       employee_number, allocation_id, is_active, created_at, updated_at
	FROM employees`

type PgEmployeeRepository struct{}

func NewEmployeeRepository() employee.Repository {
	return &PgEmployeeRepository{}
}

func (r *PgEmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := r.queryEmployees(ctx, employeeFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, employee.ErrNotFound
	}
	return employees[0], nil
}

func (r *PgEmployeeRepository) GetByNumber(ctx context.Context, employeeNumber string) (*employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := r.queryEmployees(ctx, employeeFindQuery+" WHERE employee_number = $1 AND tenant_id = $2", employeeNumber, tenantID)
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return nil, employee.ErrNotFound
	}
	return employees[0], nil
}

func (r *PgEmployeeRepository) FindByOrgIDs(ctx context.Context, orgIDs []uuid.UUID) ([]*employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	// = ANY over an empty array matches nothing, which is exactly the
	// fail-closed behavior scope callers rely on.
	return r.queryEmployees(
		ctx,
		employeeFindQuery+" WHERE tenant_id = $1 AND org_id = ANY($2) ORDER BY last_name, first_name",
		tenantID, orgIDs,
	)
}

func (r *PgEmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO employees (
			id, tenant_id, org_id, first_name, last_name, email,
			employee_number, allocation_id, is_active, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id uuid.UUID
	if err := tx.QueryRow(
		ctx,
		query,
		e.ID(),
		e.TenantID(),
		e.OrgID(),
		e.FirstName(),
		e.LastName(),
		mapping.ValueToSQLNullString(e.Email()),
		e.EmployeeNumber(),
		e.AllocationID(),
		e.IsActive(),
		e.CreatedAt(),
		e.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create employee")
	}

	return r.GetByID(ctx, id)
}

func (r *PgEmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE employees
		SET org_id = $1, first_name = $2, last_name = $3, email = $4,
		    is_active = $5, updated_at = $6
		WHERE id = $7 AND tenant_id = $8
	`
	tag, err := tx.Exec(
		ctx,
		query,
		e.OrgID(),
		e.FirstName(),
		e.LastName(),
		mapping.ValueToSQLNullString(e.Email()),
		e.IsActive(),
		e.UpdatedAt(),
		e.ID(),
		e.TenantID(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update employee")
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (r *PgEmployeeRepository) queryEmployees(ctx context.Context, query string, args ...interface{}) ([]*employee.Employee, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var employees []*employee.Employee
	for rows.Next() {
		var m models.Employee
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.OrgID,
			&m.FirstName,
			&m.LastName,
			&m.Email,
			&m.EmployeeNumber,
			&m.AllocationID,
			&m.IsActive,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan employee row")
		}
		employees = append(employees, toDomainEmployee(&m))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return employees, nil
}
