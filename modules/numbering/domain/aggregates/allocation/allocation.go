package allocation

import (
	"time"

	"github.com/google/uuid"
)

// Record is one issued identifier and its lifecycle. Records form the audit
// trail of the allocation engine and are never physically deleted.
type Record struct {
	id         uuid.UUID
	tenantID   uuid.UUID
	categoryID uuid.UUID
	fullID     string
	sequence   int64
	lifecycle  Lifecycle
	createdAt  time.Time
	updatedAt  time.Time
}

func New(tenantID, categoryID uuid.UUID, fullID string, sequence int64) *Record {
	return &Record{
		id:         uuid.New(),
		tenantID:   tenantID,
		categoryID: categoryID,
		fullID:     fullID,
		sequence:   sequence,
		lifecycle:  NewLifecycle(),
		createdAt:  time.Now(),
		updatedAt:  time.Now(),
	}
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	categoryID uuid.UUID,
	fullID string,
	sequence int64,
	lifecycle Lifecycle,
	createdAt time.Time,
	updatedAt time.Time,
) *Record {
	return &Record{
		id:         id,
		tenantID:   tenantID,
		categoryID: categoryID,
		fullID:     fullID,
		sequence:   sequence,
		lifecycle:  lifecycle,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (r *Record) ID() uuid.UUID          { return r.id }
func (r *Record) TenantID() uuid.UUID    { return r.tenantID }
func (r *Record) CategoryID() uuid.UUID  { return r.categoryID }
func (r *Record) FullIdentifier() string { return r.fullID }
func (r *Record) Sequence() int64        { return r.sequence }
func (r *Record) Status() Status         { return r.lifecycle.Status() }
func (r *Record) Target() Target         { return r.lifecycle.Target() }
func (r *Record) AssignedAt() *time.Time { return r.lifecycle.AssignedAt() }
func (r *Record) RetiredAt() *time.Time  { return r.lifecycle.RetiredAt() }
func (r *Record) RetiredReason() *string { return r.lifecycle.RetiredReason() }
func (r *Record) Lifecycle() Lifecycle   { return r.lifecycle }
func (r *Record) CreatedAt() time.Time   { return r.createdAt }
func (r *Record) UpdatedAt() time.Time   { return r.updatedAt }

func (r *Record) Assign(target Target) error {
	if err := r.lifecycle.Assign(target); err != nil {
		return err
	}
	r.updatedAt = time.Now()
	return nil
}

func (r *Record) Release() error {
	if err := r.lifecycle.Release(); err != nil {
		return err
	}
	r.updatedAt = time.Now()
	return nil
}

func (r *Record) Retire(reason string) error {
	if err := r.lifecycle.Retire(reason); err != nil {
		return err
	}
	r.updatedAt = time.Now()
	return nil
}

// UsageStatistics breaks a category or range down by lifecycle state.
// Available is derived as max(0, total - inUse - retired) so the counts
// always sum back to total.
type UsageStatistics struct {
	Total     int64
	Available int64
	InUse     int64
	Retired   int64
}

func NewUsageStatistics(total, inUse, retired int64) UsageStatistics {
	available := total - inUse - retired
	if available < 0 {
		available = 0
	}
	return UsageStatistics{
		Total:     total,
		Available: available,
		InUse:     inUse,
		Retired:   retired,
	}
}
