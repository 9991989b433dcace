package allocation

import (
	"time"

	"github.com/kadrohq/kadro/pkg/serrors"
)

var (
	ErrRecordRetired  = serrors.NewError("RECORD_RETIRED", "record is retired and accepts no further transitions", "Numbering.Errors.RecordRetired")
	ErrInvalidTarget  = serrors.NewError("INVALID_TARGET", "assignment target needs both a kind and an id", "Numbering.Errors.InvalidTarget")
	ErrNotFound       = serrors.NewError("ALLOCATION_NOT_FOUND", "allocation record not found", "Numbering.Errors.AllocationNotFound")
	ErrDuplicateIssue = serrors.NewError("DUPLICATE_ALLOCATION", "an allocation with this sequence already exists", "Numbering.Errors.DuplicateAllocation")
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusInUse     Status = "in_use"
	StatusRetired   Status = "retired"
)

// Target is the tagged assignment variant: either unassigned (zero value) or
// assigned to a collaborator record identified by kind and id. A target can
// only be set while a record moves to the in-use state, so "target set
// without in-use status" is unrepresentable.
type Target struct {
	kind string
	id   string
}

func NewTarget(kind, id string) (Target, error) {
	if kind == "" || id == "" {
		return Target{}, ErrInvalidTarget
	}
	return Target{kind: kind, id: id}, nil
}

func Unassigned() Target { return Target{} }

func (t Target) Kind() string { return t.kind }
func (t Target) ID() string   { return t.id }
func (t Target) IsZero() bool { return t.kind == "" && t.id == "" }

// Lifecycle is the three-state machine shared by the numeric ledger and the
// IP ledger:
//
//	available -> in-use  (Assign)
//	in-use    -> available (Release)
//	available | in-use -> retired (Retire, terminal)
//
// Retired accepts no transition; every mutating call on a retired lifecycle
// fails with ErrRecordRetired.
type Lifecycle struct {
	status        Status
	target        Target
	assignedAt    *time.Time
	retiredAt     *time.Time
	retiredReason *string
}

func NewLifecycle() Lifecycle {
	return Lifecycle{status: StatusAvailable}
}

func HydrateLifecycle(status Status, target Target, assignedAt, retiredAt *time.Time, retiredReason *string) Lifecycle {
	return Lifecycle{
		status:        status,
		target:        target,
		assignedAt:    assignedAt,
		retiredAt:     retiredAt,
		retiredReason: retiredReason,
	}
}

func (l *Lifecycle) Status() Status         { return l.status }
func (l *Lifecycle) Target() Target         { return l.target }
func (l *Lifecycle) AssignedAt() *time.Time { return l.assignedAt }
func (l *Lifecycle) RetiredAt() *time.Time  { return l.retiredAt }
func (l *Lifecycle) RetiredReason() *string { return l.retiredReason }

func (l *Lifecycle) Assign(target Target) error {
	if l.status == StatusRetired {
		return ErrRecordRetired
	}
	if target.IsZero() {
		return ErrInvalidTarget
	}
	now := time.Now()
	l.status = StatusInUse
	l.target = target
	l.assignedAt = &now
	return nil
}

func (l *Lifecycle) Release() error {
	if l.status == StatusRetired {
		return ErrRecordRetired
	}
	l.status = StatusAvailable
	l.target = Unassigned()
	l.assignedAt = nil
	return nil
}

func (l *Lifecycle) Retire(reason string) error {
	if l.status == StatusRetired {
		return ErrRecordRetired
	}
	now := time.Now()
	l.status = StatusRetired
	l.target = Unassigned()
	l.assignedAt = nil
	l.retiredAt = &now
	if reason != "" {
		l.retiredReason = &reason
	}
	return nil
}
