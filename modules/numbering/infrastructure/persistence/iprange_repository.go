package persistence

import (
	"context"
	stderrors "errors"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/iprange"
	"github.com/kadrohq/kadro/modules/numbering/infrastructure/persistence/models"
	"github.com/kadrohq/kadro/pkg/composables"
	"github.com/kadrohq/kadro/pkg/mapping"
)

const rangeFindQuery = `
	SELECT id, tenant_id, start_address, end_address, subnet, gateway, label, created_at, updated_at
	FROM address_ranges`

const assignmentFindQuery = `
	SELECT id, tenant_id, range_id, address, status,
	       target_kind, target_id, assigned_at, retired_at, retired_reason,
	       created_at, updated_at
	FROM address_assignments`

type PgRangeRepository struct{}

func NewRangeRepository() iprange.Repository {
	return &PgRangeRepository{}
}

func (r *PgRangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*iprange.Range, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	ranges, err := r.queryRanges(ctx, rangeFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, iprange.ErrNotFound
	}
	return ranges[0], nil
}

func (r *PgRangeRepository) List(ctx context.Context) ([]*iprange.Range, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.queryRanges(ctx, rangeFindQuery+" WHERE tenant_id = $1 ORDER BY label", tenantID)
}

func (r *PgRangeRepository) Create(ctx context.Context, rng *iprange.Range) (*iprange.Range, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO address_ranges (id, tenant_id, start_address, end_address, subnet, gateway, label, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id uuid.UUID
	if err := tx.QueryRow(
		ctx,
		query,
		rng.ID(),
		rng.TenantID(),
		rng.Start(),
		rng.End(),
		mapping.PointerToSQLNullString(rng.Subnet()),
		mapping.PointerToSQLNullString(rng.Gateway()),
		rng.Label(),
		rng.CreatedAt(),
		rng.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, errors.Wrap(err, "failed to create address range")
	}

	return r.GetByID(ctx, id)
}

func (r *PgRangeRepository) queryRanges(ctx context.Context, query string, args ...interface{}) ([]*iprange.Range, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var ranges []*iprange.Range
	for rows.Next() {
		var m models.AddressRange
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.StartAddress,
			&m.EndAddress,
			&m.Subnet,
			&m.Gateway,
			&m.Label,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan address range row")
		}
		rng, err := toDomainRange(&m)
		if err != nil {
			return nil, errors.Wrap(err, "corrupt address range row")
		}
		ranges = append(ranges, rng)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return ranges, nil
}

type PgAssignmentRepository struct{}

func NewAssignmentRepository() iprange.AssignmentRepository {
	return &PgAssignmentRepository{}
}

func (r *PgAssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*iprange.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := r.queryAssignments(ctx, assignmentFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, iprange.ErrAssignmentNotFound
	}
	return assignments[0], nil
}

func (r *PgAssignmentRepository) GetByAddress(ctx context.Context, address string) (*iprange.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := r.queryAssignments(ctx, assignmentFindQuery+" WHERE address = $1 AND tenant_id = $2", address, tenantID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, iprange.ErrAssignmentNotFound
	}
	return assignments[0], nil
}

func (r *PgAssignmentRepository) FindByStatus(ctx context.Context, rangeID uuid.UUID, status allocation.Status) ([]*iprange.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.queryAssignments(
		ctx,
		assignmentFindQuery+" WHERE tenant_id = $1 AND range_id = $2 AND status = $3 ORDER BY address",
		tenantID, rangeID, string(status),
	)
}

func (r *PgAssignmentRepository) ListByRange(ctx context.Context, rangeID uuid.UUID) ([]*iprange.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.queryAssignments(
		ctx,
		assignmentFindQuery+" WHERE tenant_id = $1 AND range_id = $2 ORDER BY address",
		tenantID, rangeID,
	)
}

func (r *PgAssignmentRepository) Create(ctx context.Context, a *iprange.Assignment) (*iprange.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	target := a.Target()
	query := `
		INSERT INTO address_assignments (
			id, tenant_id, range_id, address, status,
			target_kind, target_id, assigned_at, retired_at, retired_reason,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var id uuid.UUID
	if err := tx.QueryRow(
		ctx,
		query,
		a.ID(),
		a.TenantID(),
		a.RangeID(),
		a.Address(),
		string(a.Status()),
		mapping.ValueToSQLNullString(target.Kind()),
		mapping.ValueToSQLNullString(target.ID()),
		mapping.PointerToSQLNullTime(a.AssignedAt()),
		mapping.PointerToSQLNullTime(a.RetiredAt()),
		mapping.PointerToSQLNullString(a.RetiredReason()),
		a.CreatedAt(),
		a.UpdatedAt(),
	).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, iprange.ErrAddressAlreadyAllocated
		}
		return nil, errors.Wrap(err, "failed to create address assignment")
	}

	return r.GetByID(ctx, id)
}

func (r *PgAssignmentRepository) Update(ctx context.Context, a *iprange.Assignment) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	target := a.Target()
	query := `
		UPDATE address_assignments
		SET status = $1, target_kind = $2, target_id = $3, assigned_at = $4,
		    retired_at = $5, retired_reason = $6, updated_at = $7
		WHERE id = $8 AND tenant_id = $9
	`
	tag, err := tx.Exec(
		ctx,
		query,
		string(a.Status()),
		mapping.ValueToSQLNullString(target.Kind()),
		mapping.ValueToSQLNullString(target.ID()),
		mapping.PointerToSQLNullTime(a.AssignedAt()),
		mapping.PointerToSQLNullTime(a.RetiredAt()),
		mapping.PointerToSQLNullString(a.RetiredReason()),
		a.UpdatedAt(),
		a.ID(),
		a.TenantID(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update address assignment")
	}
	if tag.RowsAffected() == 0 {
		return iprange.ErrAssignmentNotFound
	}
	return nil
}

func (r *PgAssignmentRepository) CountByRange(ctx context.Context, rangeID uuid.UUID) (inUse, retired int64, err error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, 0, err
	}

	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'in_use'),
		       COUNT(*) FILTER (WHERE status = 'retired')
		FROM address_assignments
		WHERE tenant_id = $1 AND range_id = $2
	`
	if err := tx.QueryRow(ctx, query, tenantID, rangeID).Scan(&inUse, &retired); err != nil {
		return 0, 0, errors.Wrap(err, "failed to count address assignments")
	}
	return inUse, retired, nil
}

func (r *PgAssignmentRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]*iprange.Assignment, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var assignments []*iprange.Assignment
	for rows.Next() {
		var m models.AddressAssignment
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.RangeID,
			&m.Address,
			&m.Status,
			&m.TargetKind,
			&m.TargetID,
			&m.AssignedAt,
			&m.RetiredAt,
			&m.RetiredReason,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan address assignment row")
		}
		assignments = append(assignments, toDomainAssignment(&m))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return assignments, nil
}
