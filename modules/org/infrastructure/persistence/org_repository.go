package persistence

import (
	"context"
	stderrors "errors"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kadrohq/kadro/modules/org/domain/aggregates/organization"
	"github.com/kadrohq/kadro/modules/org/infrastructure/persistence/models"
	"github.com/kadrohq/kadro/pkg/composables"
)

const orgFindQuery = `
	SELECT id, name, code, type, parent_id, sort_order, is_active, created_at, updated_at
	FROM organizations`

type PgOrgRepository struct{}

func NewOrgRepository() organization.Repository {
	return &PgOrgRepository{}
}

func (r *PgOrgRepository) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	orgs, err := r.queryOrgs(ctx, orgFindQuery+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, organization.ErrNotFound
	}
	return orgs[0], nil
}

func (r *PgOrgRepository) GetByCode(ctx context.Context, code string) (*organization.Organization, error) {
	orgs, err := r.queryOrgs(ctx, orgFindQuery+" WHERE code = $1", code)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, organization.ErrNotFound
	}
	return orgs[0], nil
}

func (r *PgOrgRepository) GetChildren(ctx context.Context, parentIDs []uuid.UUID) ([]*organization.Organization, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	return r.queryOrgs(ctx, orgFindQuery+" WHERE parent_id = ANY($1) ORDER BY sort_order, name", parentIDs)
}

func (r *PgOrgRepository) GetPaginated(ctx context.Context, params *organization.FindParams) ([]*organization.Organization, error) {
	if params == nil {
		params = &organization.FindParams{}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := orgFindQuery
	if params.ActiveOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY sort_order, name OFFSET $1 LIMIT $2"
	return r.queryOrgs(ctx, query, offset, limit)
}

func (r *PgOrgRepository) Create(ctx context.Context, org *organization.Organization) (*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO organizations (id, name, code, type, parent_id, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var id uuid.UUID
	if err := tx.QueryRow(
		ctx,
		query,
		org.ID(),
		org.Name(),
		org.Code(),
		string(org.Type()),
		org.ParentID(),
		org.SortOrder(),
		org.IsActive(),
		org.CreatedAt(),
		org.UpdatedAt(),
	).Scan(&id); err != nil {
		return nil, classifyOrgError(err)
	}

	return r.GetByID(ctx, id)
}

func (r *PgOrgRepository) Update(ctx context.Context, org *organization.Organization) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	query := `
		UPDATE organizations
		SET name = $1, code = $2, type = $3, parent_id = $4, sort_order = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	tag, err := tx.Exec(
		ctx,
		query,
		org.Name(),
		org.Code(),
		string(org.Type()),
		org.ParentID(),
		org.SortOrder(),
		org.IsActive(),
		org.UpdatedAt(),
		org.ID(),
	)
	if err != nil {
		return classifyOrgError(err)
	}
	if tag.RowsAffected() == 0 {
		return organization.ErrNotFound
	}
	return nil
}

func (r *PgOrgRepository) NextSiblingSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var query string
	var row pgx.Row
	if parentID == nil {
		query = `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM organizations WHERE parent_id IS NULL`
		row = tx.QueryRow(ctx, query)
	} else {
		query = `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM organizations WHERE parent_id = $1`
		row = tx.QueryRow(ctx, query, *parentID)
	}

	var next int
	if err := row.Scan(&next); err != nil {
		return 0, errors.Wrap(err, "failed to compute sibling sort order")
	}
	return next, nil
}

func (r *PgOrgRepository) UpdateSortOrders(ctx context.Context, orderedIDs []uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	// One statement renumbers the whole sibling batch so no intermediate
	// duplicate positions are ever visible.
	query := `
		UPDATE organizations AS o
		SET sort_order = u.ord, updated_at = now()
		FROM unnest($1::uuid[]) WITH ORDINALITY AS u(id, ord)
		WHERE o.id = u.id
	`
	if _, err := tx.Exec(ctx, query, orderedIDs); err != nil {
		return errors.Wrap(err, "failed to renumber siblings")
	}
	return nil
}

func (r *PgOrgRepository) DeactivateMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	query := `UPDATE organizations SET is_active = false, updated_at = now() WHERE id = ANY($1)`
	if _, err := tx.Exec(ctx, query, ids); err != nil {
		return errors.Wrap(err, "failed to deactivate organizations")
	}
	return nil
}

func (r *PgOrgRepository) queryOrgs(ctx context.Context, query string, args ...interface{}) ([]*organization.Organization, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var orgs []*organization.Organization
	for rows.Next() {
		var m models.Organization
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Code,
			&m.Type,
			&m.ParentID,
			&m.SortOrder,
			&m.IsActive,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan organization row")
		}
		orgs = append(orgs, toDomainOrganization(&m))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return orgs, nil
}

func classifyOrgError(err error) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return organization.ErrDuplicateCode
	}
	return err
}
