package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/category"
	"github.com/kadrohq/kadro/pkg/composables"
)

// SequenceService owns the per-category monotonic counters. CommitNext is the
// only way a counter advances; the increment happens as a row-locked
// read-increment-write inside the store, never in application memory.
type SequenceService struct {
	categories category.Repository
	maxRetries int
}

func NewSequenceService(categories category.Repository, maxRetries int) *SequenceService {
	return &SequenceService{
		categories: categories,
		maxRetries: maxRetries,
	}
}

// PeekNext previews the identifier a category would issue next. It is a
// snapshot read: the previewed value is only a hint and may be taken by a
// concurrent CommitNext.
func (s *SequenceService) PeekNext(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (int64, error) {
		cat, err := s.categories.GetByID(txCtx, categoryID)
		if err != nil {
			return 0, err
		}
		return cat.PeekNext(), nil
	})
}

// CommitNext atomically reads, increments and persists the category's
// counter, returning the committed value. Two concurrent calls on the same
// category never observe the same result; conflicts are retried a bounded
// number of times before surfacing ErrAllocationContention.
func (s *SequenceService) CommitNext(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var value int64
	err := withAllocationRetry(s.maxRetries, func() error {
		return composables.InTenantTx(ctx, func(txCtx context.Context) error {
			v, err := s.categories.IncrementSequence(txCtx, categoryID)
			if err != nil {
				return err
			}
			value = v
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Render builds the human-readable identifier:
// tenantCode + separator + categoryCode + separator + zero-padded sequence.
// Padding never truncates: a sequence wider than digits is emitted in full.
func Render(tenantCode, categoryCode string, sequence int64, separator string, digits int) (string, error) {
	if sequence <= 0 {
		return "", category.ErrInvalidSequence
	}
	return fmt.Sprintf("%s%s%s%s%0*d", tenantCode, separator, categoryCode, separator, digits, sequence), nil
}
