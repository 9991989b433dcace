package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/category"
	"github.com/kadrohq/kadro/pkg/composables"
	"github.com/kadrohq/kadro/pkg/eventbus"
	"github.com/kadrohq/kadro/pkg/metrics"
)

// TenantCodeProvider resolves the short code rendered into every identifier.
// The org module's TenantGate implements it.
type TenantCodeProvider interface {
	TenantCode(ctx context.Context, tenantRootID uuid.UUID) (string, error)
}

type LedgerOptions struct {
	Separator  string
	Digits     int
	MaxRetries int
}

func (o *LedgerOptions) fill() {
	if o.Separator == "" {
		o.Separator = "-"
	}
	if o.Digits <= 0 {
		o.Digits = 4
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
}

// LedgerService is the numeric-identifier flavor of the resource ledger:
// issue creates a record in the available state, assign/release/retire walk
// the lifecycle, retired is terminal.
type LedgerService struct {
	records    allocation.Repository
	categories category.Repository
	tenants    TenantCodeProvider
	publisher  eventbus.EventBus
	opts       LedgerOptions
}

func NewLedgerService(
	records allocation.Repository,
	categories category.Repository,
	tenants TenantCodeProvider,
	publisher eventbus.EventBus,
	opts LedgerOptions,
) *LedgerService {
	opts.fill()
	return &LedgerService{
		records:    records,
		categories: categories,
		tenants:    tenants,
		publisher:  publisher,
		opts:       opts,
	}
}

// Issue commits the category's next sequence value, renders the full
// identifier and persists a new available record — all in one transaction, so
// a failure at any step leaves neither a burned sequence nor a partial
// record. Conflicts between concurrent issuers are retried a bounded number
// of times before ErrAllocationContention.
func (s *LedgerService) Issue(ctx context.Context, categoryID uuid.UUID) (*allocation.Record, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var created *allocation.Record
	var kind category.Kind
	err = withAllocationRetry(s.opts.MaxRetries, func() error {
		return composables.InTenantTx(ctx, func(txCtx context.Context) error {
			cat, err := s.categories.GetByID(txCtx, categoryID)
			if err != nil {
				return err
			}
			if !cat.IsActive() {
				return category.ErrCategoryInactive
			}
			kind = cat.Kind()

			seq, err := s.categories.IncrementSequence(txCtx, categoryID)
			if err != nil {
				return err
			}

			tenantCode, err := s.tenants.TenantCode(txCtx, tenantID)
			if err != nil {
				return err
			}

			fullID, err := Render(tenantCode, cat.Code(), seq, s.opts.Separator, s.opts.Digits)
			if err != nil {
				return err
			}

			created, err = s.records.Create(txCtx, allocation.New(tenantID, categoryID, fullID, seq))
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.IdentifiersIssued.WithLabelValues(string(kind)).Inc()
	s.publisher.Publish(allocation.NewIssuedEvent(created))
	return created, nil
}

func (s *LedgerService) Assign(ctx context.Context, recordID uuid.UUID, data *AssignTargetDTO) (*allocation.Record, error) {
	if err := validate.Struct(data); err != nil {
		return nil, err
	}
	target, err := allocation.NewTarget(data.TargetKind, data.TargetID)
	if err != nil {
		return nil, err
	}

	rec, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*allocation.Record, error) {
		rec, err := s.records.GetByID(txCtx, recordID)
		if err != nil {
			return nil, err
		}
		if err := rec.Assign(target); err != nil {
			return nil, err
		}
		if err := s.records.Update(txCtx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsAssigned.Inc()
	s.publisher.Publish(allocation.NewAssignedEvent(rec))
	return rec, nil
}

func (s *LedgerService) Release(ctx context.Context, recordID uuid.UUID) (*allocation.Record, error) {
	rec, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*allocation.Record, error) {
		rec, err := s.records.GetByID(txCtx, recordID)
		if err != nil {
			return nil, err
		}
		if err := rec.Release(); err != nil {
			return nil, err
		}
		if err := s.records.Update(txCtx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(allocation.NewReleasedEvent(rec))
	return rec, nil
}

func (s *LedgerService) Retire(ctx context.Context, recordID uuid.UUID, reason string) (*allocation.Record, error) {
	rec, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*allocation.Record, error) {
		rec, err := s.records.GetByID(txCtx, recordID)
		if err != nil {
			return nil, err
		}
		if err := rec.Retire(reason); err != nil {
			return nil, err
		}
		if err := s.records.Update(txCtx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsRetired.Inc()
	s.publisher.Publish(allocation.NewRetiredEvent(rec))
	return rec, nil
}

func (s *LedgerService) FindByFullIdentifier(ctx context.Context, fullID string) (*allocation.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*allocation.Record, error) {
		return s.records.GetByFullIdentifier(txCtx, fullID)
	})
}

func (s *LedgerService) FindByStatus(ctx context.Context, categoryID uuid.UUID, status allocation.Status) ([]*allocation.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*allocation.Record, error) {
		return s.records.FindByStatus(txCtx, categoryID, status)
	})
}

// UsageStatistics is a read-only breakdown of a category's records by
// lifecycle state.
func (s *LedgerService) UsageStatistics(ctx context.Context, categoryID uuid.UUID) (allocation.UsageStatistics, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (allocation.UsageStatistics, error) {
		total, inUse, retired, err := s.records.CountByCategory(txCtx, categoryID)
		if err != nil {
			return allocation.UsageStatistics{}, err
		}
		return allocation.NewUsageStatistics(total, inUse, retired), nil
	})
}
