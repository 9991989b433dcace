package persistence

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/category"
	"github.com/kadrohq/kadro/modules/numbering/infrastructure/persistence/models"
	"github.com/kadrohq/kadro/pkg/composables"
)

const categoryFindQuery = `
	SELECT id, tenant_id, kind, code, name, sequence, is_active, created_at, updated_at
	FROM allocation_categories`

type PgCategoryRepository struct{}

func NewCategoryRepository() category.Repository {
	return &PgCategoryRepository{}
}

func (r *PgCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := r.queryCategories(ctx, categoryFindQuery+" WHERE id = $1 AND tenant_id = $2", id, tenantID)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, category.ErrNotFound
	}
	return cats[0], nil
}

func (r *PgCategoryRepository) GetByCode(ctx context.Context, kind category.Kind, code string) (*category.Category, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := r.queryCategories(
		ctx,
		categoryFindQuery+" WHERE tenant_id = $1 AND kind = $2 AND code = $3",
		tenantID, string(kind), code,
	)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		return nil, category.ErrNotFound
	}
	return cats[0], nil
}

func (r *PgCategoryRepository) List(ctx context.Context) ([]*category.Category, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.queryCategories(ctx, categoryFindQuery+" WHERE tenant_id = $1 ORDER BY kind, code", tenantID)
}

func (r *PgCategoryRepository) Create(ctx context.Context, c *category.Category) (*category.Category, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO allocation_categories (id, tenant_id, kind, code, name, sequence, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id uuid.UUID
	if err := tx.QueryRow(
		ctx,
		query,
		c.ID(),
		c.TenantID(),
		string(c.Kind()),
		c.Code(),
		c.Name(),
		c.Sequence(),
		c.IsActive(),
		c.CreatedAt(),
		c.UpdatedAt(),
	).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, category.ErrDuplicateCode
		}
		return nil, errors.Wrap(err, "failed to create allocation category")
	}

	return r.GetByID(ctx, id)
}

func (r *PgCategoryRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	query := `UPDATE allocation_categories SET is_active = false, updated_at = now() WHERE id = $1 AND tenant_id = $2`
	tag, err := tx.Exec(ctx, query, id, tenantID)
	if err != nil {
		return errors.Wrap(err, "failed to deactivate category")
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

// IncrementSequence locks the category row, bumps the counter and returns the
// committed value. The FOR UPDATE lock serializes every concurrent issuer of
// the same category, which is the correctness requirement — not a tuning
// knob.
func (r *PgCategoryRepository) IncrementSequence(ctx context.Context, id uuid.UUID) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var (
		current  int64
		isActive bool
	)
	lockQuery := `SELECT sequence, is_active FROM allocation_categories WHERE id = $1 AND tenant_id = $2 FOR UPDATE`
	if err := tx.QueryRow(ctx, lockQuery, id, tenantID).Scan(&current, &isActive); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return 0, category.ErrNotFound
		}
		return 0, errors.Wrap(err, "failed to lock category row")
	}
	if !isActive {
		return 0, category.ErrCategoryInactive
	}

	next := current + 1
	updateQuery := `UPDATE allocation_categories SET sequence = $1, updated_at = now() WHERE id = $2`
	if _, err := tx.Exec(ctx, updateQuery, next, id); err != nil {
		return 0, errors.Wrap(err, "failed to persist incremented sequence")
	}
	return next, nil
}

func (r *PgCategoryRepository) queryCategories(ctx context.Context, query string, args ...interface{}) ([]*category.Category, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to execute query: %s", query))
	}
	defer rows.Close()

	var cats []*category.Category
	for rows.Next() {
		var m models.AllocationCategory
		if err := rows.Scan(
			&m.ID,
			&m.TenantID,
			&m.Kind,
			&m.Code,
			&m.Name,
			&m.Sequence,
			&m.IsActive,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan category row")
		}
		cats = append(cats, toDomainCategory(&m))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return cats, nil
}
