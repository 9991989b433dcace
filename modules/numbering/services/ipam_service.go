package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/iprange"
	"github.com/kadrohq/kadro/pkg/composables"
	"github.com/kadrohq/kadro/pkg/eventbus"
	"github.com/kadrohq/kadro/pkg/metrics"
)

// IPAMService is the IP flavor of the resource ledger. It shares the
// allocation lifecycle but issues explicit addresses instead of sequence
// values: an issue first proves the address lies inside the parent range and
// has no existing assignment record.
type IPAMService struct {
	ranges      iprange.Repository
	assignments iprange.AssignmentRepository
	publisher   eventbus.EventBus
	maxRetries  int
}

func NewIPAMService(
	ranges iprange.Repository,
	assignments iprange.AssignmentRepository,
	publisher eventbus.EventBus,
	maxRetries int,
) *IPAMService {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &IPAMService{
		ranges:      ranges,
		assignments: assignments,
		publisher:   publisher,
		maxRetries:  maxRetries,
	}
}

func (s *IPAMService) CreateRange(ctx context.Context, data *CreateRangeDTO) (*iprange.Range, error) {
	if err := validate.Struct(data); err != nil {
		return nil, err
	}
	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*iprange.Range, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return nil, err
		}
		r, err := iprange.New(
			tenantID,
			data.Start,
			data.End,
			data.Label,
			iprange.WithSubnet(data.Subnet),
			iprange.WithGateway(data.Gateway),
		)
		if err != nil {
			return nil, err
		}
		return s.ranges.Create(txCtx, r)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(iprange.NewRangeCreatedEvent(created))
	return created, nil
}

func (s *IPAMService) GetRange(ctx context.Context, rangeID uuid.UUID) (*iprange.Range, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*iprange.Range, error) {
		return s.ranges.GetByID(txCtx, rangeID)
	})
}

func (s *IPAMService) ListRanges(ctx context.Context) ([]*iprange.Range, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*iprange.Range, error) {
		return s.ranges.List(txCtx)
	})
}

func (s *IPAMService) ListAssignments(ctx context.Context, rangeID uuid.UUID) ([]*iprange.Assignment, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*iprange.Assignment, error) {
		return s.assignments.ListByRange(txCtx, rangeID)
	})
}

// IssueAddress creates an available assignment record for one address inside
// the range. Containment and non-duplication are checked inside the same
// transaction that persists the record; the unique (tenant, address)
// constraint backstops a race between two issuers.
func (s *IPAMService) IssueAddress(ctx context.Context, rangeID uuid.UUID, address string) (*iprange.Assignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var created *iprange.Assignment
	err = withAllocationRetry(s.maxRetries, func() error {
		return composables.InTenantTx(ctx, func(txCtx context.Context) error {
			r, err := s.ranges.GetByID(txCtx, rangeID)
			if err != nil {
				return err
			}
			inside, err := r.Contains(address)
			if err != nil {
				return err
			}
			if !inside {
				return iprange.ErrAddressOutOfRange
			}

			if _, err := s.assignments.GetByAddress(txCtx, address); err == nil {
				return iprange.ErrAddressAlreadyAllocated
			} else if !errors.Is(err, iprange.ErrAssignmentNotFound) {
				return err
			}

			created, err = s.assignments.Create(txCtx, iprange.NewAssignment(tenantID, rangeID, address))
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.AddressesIssued.Inc()
	s.publisher.Publish(iprange.NewIssuedEvent(created))
	return created, nil
}

func (s *IPAMService) Assign(ctx context.Context, assignmentID uuid.UUID, data *AssignTargetDTO) (*iprange.Assignment, error) {
	if err := validate.Struct(data); err != nil {
		return nil, err
	}
	target, err := allocation.NewTarget(data.TargetKind, data.TargetID)
	if err != nil {
		return nil, err
	}

	a, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*iprange.Assignment, error) {
		a, err := s.assignments.GetByID(txCtx, assignmentID)
		if err != nil {
			return nil, err
		}
		if err := a.Assign(target); err != nil {
			return nil, err
		}
		if err := s.assignments.Update(txCtx, a); err != nil {
			return nil, err
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsAssigned.Inc()
	s.publisher.Publish(iprange.NewAssignedEvent(a))
	return a, nil
}

func (s *IPAMService) Release(ctx context.Context, assignmentID uuid.UUID) (*iprange.Assignment, error) {
	a, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*iprange.Assignment, error) {
		a, err := s.assignments.GetByID(txCtx, assignmentID)
		if err != nil {
			return nil, err
		}
		if err := a.Release(); err != nil {
			return nil, err
		}
		if err := s.assignments.Update(txCtx, a); err != nil {
			return nil, err
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(iprange.NewReleasedEvent(a))
	return a, nil
}

func (s *IPAMService) Retire(ctx context.Context, assignmentID uuid.UUID, reason string) (*iprange.Assignment, error) {
	a, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*iprange.Assignment, error) {
		a, err := s.assignments.GetByID(txCtx, assignmentID)
		if err != nil {
			return nil, err
		}
		if err := a.Retire(reason); err != nil {
			return nil, err
		}
		if err := s.assignments.Update(txCtx, a); err != nil {
			return nil, err
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordsRetired.Inc()
	s.publisher.Publish(iprange.NewRetiredEvent(a))
	return a, nil
}

// UsageStatistics reports the range's breakdown. Total is the range's derived
// capacity: addresses never issued count as available alongside issued
// records that sit in the available state.
func (s *IPAMService) UsageStatistics(ctx context.Context, rangeID uuid.UUID) (allocation.UsageStatistics, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (allocation.UsageStatistics, error) {
		r, err := s.ranges.GetByID(txCtx, rangeID)
		if err != nil {
			return allocation.UsageStatistics{}, err
		}
		inUse, retired, err := s.assignments.CountByRange(txCtx, rangeID)
		if err != nil {
			return allocation.UsageStatistics{}, err
		}
		return allocation.NewUsageStatistics(int64(r.Count()), inUse, retired), nil
	})
}
