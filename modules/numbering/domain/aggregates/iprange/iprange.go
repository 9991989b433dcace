package iprange

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/numbering/domain/value_objects/ipv4"
	"github.com/kadrohq/kadro/pkg/serrors"
)

var (
	ErrNotFound                = serrors.NewError("RANGE_NOT_FOUND", "address range not found", "Numbering.Errors.RangeNotFound")
	ErrAssignmentNotFound      = serrors.NewError("ASSIGNMENT_NOT_FOUND", "address assignment not found", "Numbering.Errors.AssignmentNotFound")
	ErrAddressOutOfRange       = serrors.NewError("ADDRESS_OUT_OF_RANGE", "address lies outside the range", "Numbering.Errors.AddressOutOfRange")
	ErrAddressAlreadyAllocated = serrors.NewError("ADDRESS_ALREADY_ALLOCATED", "address already has an assignment record", "Numbering.Errors.AddressAlreadyAllocated")
)

// Range is the IP-flavored counterpart of an allocation category: a tenant's
// [start, end] slice of IPv4 space. Capacity is derived, never stored
// authoritative; an end before start is a valid zero-capacity range.
type Range struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	start     string
	end       string
	subnet    *string
	gateway   *string
	label     string
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Range)

func WithID(id uuid.UUID) Option {
	return func(r *Range) { r.id = id }
}

func WithSubnet(subnet string) Option {
	return func(r *Range) {
		subnet = strings.TrimSpace(subnet)
		if subnet != "" {
			r.subnet = &subnet
		}
	}
}

func WithGateway(gateway string) Option {
	return func(r *Range) {
		gateway = strings.TrimSpace(gateway)
		if gateway != "" {
			r.gateway = &gateway
		}
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(r *Range) { r.createdAt = createdAt }
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(r *Range) { r.updatedAt = updatedAt }
}

// New validates both endpoints as dotted-decimal addresses before the range
// is accepted; capacity checks come later, at issue time.
func New(tenantID uuid.UUID, start, end, label string, opts ...Option) (*Range, error) {
	if _, err := ipv4.ToInt(start); err != nil {
		return nil, err
	}
	if _, err := ipv4.ToInt(end); err != nil {
		return nil, err
	}
	r := &Range{
		id:        uuid.New(),
		tenantID:  tenantID,
		start:     start,
		end:       end,
		label:     strings.TrimSpace(label),
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Range) ID() uuid.UUID        { return r.id }
func (r *Range) TenantID() uuid.UUID  { return r.tenantID }
func (r *Range) Start() string        { return r.start }
func (r *Range) End() string          { return r.end }
func (r *Range) Subnet() *string      { return r.subnet }
func (r *Range) Gateway() *string     { return r.gateway }
func (r *Range) Label() string        { return r.label }
func (r *Range) CreatedAt() time.Time { return r.createdAt }
func (r *Range) UpdatedAt() time.Time { return r.updatedAt }

// Count is the derived address capacity of the range.
func (r *Range) Count() uint32 {
	count, err := ipv4.CountInRange(r.start, r.end)
	if err != nil {
		return 0
	}
	return count
}

func (r *Range) Contains(addr string) (bool, error) {
	return ipv4.WithinRange(addr, r.start, r.end)
}
