package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/pkg/constants"
)

var ErrNoTenantID = errors.New("no tenant id found in context")

// WithTenantID stores the caller's tenant root organization id. Every
// tenant-scoped repository reads it back through UseTenantID.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoTenantID
	}
	return id, nil
}

// InTenantTx is InTx with the additional requirement that a tenant id is
// present in the context, so an unscoped call fails before touching the store.
func InTenantTx(ctx context.Context, fn func(context.Context) error) error {
	if _, err := UseTenantID(ctx); err != nil {
		return err
	}
	return InTx(ctx, fn)
}

func InTenantTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}
