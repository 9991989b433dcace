package itf

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kadrohq/kadro/pkg/composables"
	"github.com/kadrohq/kadro/pkg/repo"
)

var errNoDatabase = errors.New("itf: no database behind stub transaction")

// stubTx satisfies repo.Tx for service tests built on mock repositories.
// Any attempt to actually query through it fails loudly.
type stubTx struct{}

func (stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errNoDatabase
}

func (stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errNoDatabase
}

func (stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return errRow{}
}

type errRow struct{}

func (errRow) Scan(dest ...any) error { return errNoDatabase }

func StubTx() repo.Tx { return stubTx{} }

// Context builds a context a tenant-scoped service accepts: a stub
// transaction plus the given tenant root id.
func Context(tenantID uuid.UUID) context.Context {
	ctx := composables.WithTx(context.Background(), stubTx{})
	return composables.WithTenantID(ctx, tenantID)
}

// ContextWithoutTenant carries only the stub transaction.
func ContextWithoutTenant() context.Context {
	return composables.WithTx(context.Background(), stubTx{})
}
