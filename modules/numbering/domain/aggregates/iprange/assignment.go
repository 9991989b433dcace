package iprange

import (
	"time"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
)

// Assignment is the ledger entry for one address inside a range. It carries
// the same three-state lifecycle as a numeric allocation record; at most one
// assignment exists per (tenant, address).
type Assignment struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	rangeID   uuid.UUID
	address   string
	lifecycle allocation.Lifecycle
	createdAt time.Time
	updatedAt time.Time
}

func NewAssignment(tenantID, rangeID uuid.UUID, address string) *Assignment {
	return &Assignment{
		id:        uuid.New(),
		tenantID:  tenantID,
		rangeID:   rangeID,
		address:   address,
		lifecycle: allocation.NewLifecycle(),
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
}

func HydrateAssignment(
	id uuid.UUID,
	tenantID uuid.UUID,
	rangeID uuid.UUID,
	address string,
	lifecycle allocation.Lifecycle,
	createdAt time.Time,
	updatedAt time.Time,
) *Assignment {
	return &Assignment{
		id:        id,
		tenantID:  tenantID,
		rangeID:   rangeID,
		address:   address,
		lifecycle: lifecycle,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (a *Assignment) ID() uuid.UUID                   { return a.id }
func (a *Assignment) TenantID() uuid.UUID             { return a.tenantID }
func (a *Assignment) RangeID() uuid.UUID              { return a.rangeID }
func (a *Assignment) Address() string                 { return a.address }
func (a *Assignment) Status() allocation.Status       { return a.lifecycle.Status() }
func (a *Assignment) Target() allocation.Target       { return a.lifecycle.Target() }
func (a *Assignment) AssignedAt() *time.Time          { return a.lifecycle.AssignedAt() }
func (a *Assignment) RetiredAt() *time.Time           { return a.lifecycle.RetiredAt() }
func (a *Assignment) RetiredReason() *string          { return a.lifecycle.RetiredReason() }
func (a *Assignment) Lifecycle() allocation.Lifecycle { return a.lifecycle }
func (a *Assignment) CreatedAt() time.Time            { return a.createdAt }
func (a *Assignment) UpdatedAt() time.Time            { return a.updatedAt }

func (a *Assignment) Assign(target allocation.Target) error {
	if err := a.lifecycle.Assign(target); err != nil {
		return err
	}
	a.updatedAt = time.Now()
	return nil
}

func (a *Assignment) Release() error {
	if err := a.lifecycle.Release(); err != nil {
		return err
	}
	a.updatedAt = time.Now()
	return nil
}

func (a *Assignment) Retire(reason string) error {
	if err := a.lifecycle.Retire(reason); err != nil {
		return err
	}
	a.updatedAt = time.Now()
	return nil
}
