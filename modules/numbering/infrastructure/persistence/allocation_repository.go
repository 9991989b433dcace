package persistence

import (
	"context"
	stderrors "errors"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	"github.com/kadrohq/kadro/modules/numbering/infrastructure/persistence/models"
	"github.com/kadrohq/kadro/pkg/composables"
	"github.com/kadrohq/kadro/pkg/mapping"
)

const recordFindQuery = `
	SELECT id, tenant_id, category_id, full_identifier, sequence, status,
	       target_kind, target_id, assigned_at, retired_at, retired_reason,
	       created_at, updated_at
	FROM allocation_records`

type PgAllocationRepository struct{}

func NewAllocationRepository() allocation.Repository {
	return &PgAllocationRepository{}
}

func (r *PgAllocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*allocation.Record, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	records, err := r.queryRecords(ctx, recordFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, allocation.ErrNotFound
	}
	return records[0], nil
}

func (r *PgAllocationRepository) GetByFullIdentifier(ctx context.Context, fullID string) (*allocation.Record, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	records, err := r.queryRecords(ctx, recordFindQuery+" WHERE full_identifier = $1 AND tenant_id = $2", fullID, tenantID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, allocation.ErrNotFound
	}
	return records[0], nil
}

func (r *PgAllocationRepository) FindByStatus(ctx context.Context, categoryID uuid.UUID, status allocation.Status) ([]*allocation.Record, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.queryRecords(
		ctx,
		recordFindQuery+" WHERE tenant_id = $1 AND category_id = $2 AND status = $3 ORDER BY sequence",
		tenantID, categoryID, string(status),
	)
}

func (r *PgAllocationRepository) Create(ctx context.Context, rec *allocation.Record) (*allocation.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	target := rec.Target()
	query := `
		INSERT INTO allocation_records (
			id, tenant_id, category_id, full_identifier, sequence, status,
			target_kind, target_id, assigned_at, retired_at, retired_reason,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	var id uuid.UUID
	if err := tx.QueryRow(
		ctx,
		query,
		rec.ID(),
		rec.TenantID(),
		rec.CategoryID(),
		rec.FullIdentifier(),
		rec.Sequence(),
		string(rec.Status()),
		mapping.ValueToSQLNullString(target.Kind()),
		mapping.ValueToSQLNullString(target.ID()),
		mapping.PointerToSQLNullTime(rec.AssignedAt()),
		mapping.PointerToSQLNullTime(rec.RetiredAt()),
		mapping.PointerToSQLNullString(rec.RetiredReason()),
		rec.CreatedAt(),
		rec.UpdatedAt(),
	).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, allocation.ErrDuplicateIssue
		}
		return nil, errors.Wrap(err, "failed to create allocation record")
	}

	return r.GetByID(ctx, id)
}

func (r *PgAllocationRepository) Update(ctx context.Context, rec *allocation.Record) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	target := rec.Target()
	query := `
		UPDATE allocation_records
		SET status = $1, target_kind = $2, target_id = $3, assigned_at = $4,
		    retired_at = $5, retired_reason = $6, updated_at = $7
		WHERE id = $8 AND tenant_id = $9
	`
	tag, err := tx.Exec(
		ctx,
		query,
		string(rec.Status()),
		mapping.ValueToSQLNullString(target.Kind()),
		mapping.ValueToSQLNullString(target.ID()),
		mapping.PointerToSQLNullTime(rec.AssignedAt()),
		mapping.PointerToSQLNullTime(rec.RetiredAt()),
		mapping.PointerToSQLNullString(rec.RetiredReason()),
		rec.UpdatedAt(),
		rec.ID(),
		rec.TenantID(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to update allocation record")
	}
	if tag.RowsAffected() == 0 {
		return allocation.ErrNotFound
	}
	return nil
}

func (r *PgAllocationRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (total, inUse, retired int64, err error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'in_use'),
		       COUNT(*) FILTER (WHERE status = 'retired')
		FROM allocation_records
		WHERE tenant_id = $1 AND category_id = $2
	`
	if err := tx.QueryRow(ctx, query, tenantID, categoryID).Scan(&total, &inUse, &retired); err != nil {
		return 0, 0, 0, errors.Wrap(err, "failed to count allocation records")
	}
	return total, inUse, retired, nil
}

func (r *PgAllocationRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*allocation.Record, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var records []*allocation.Record
	for rows.Next() {
		var m models.AllocationRecord
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.CategoryID,
			&m.FullIdentifier,
			&m.Sequence,
			&m.Status,
			&m.TargetKind,
			&m.TargetID,
			&m.AssignedAt,
			&m.RetiredAt,
			&m.RetiredReason,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan allocation record row")
		}
		records = append(records, toDomainRecord(&m))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return records, nil
}
