package organization

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/pkg/serrors"
)

var (
	ErrNotFound      = serrors.NewError("ORGANIZATION_NOT_FOUND", "organization not found", "Org.Errors.NotFound")
	ErrDuplicateCode = serrors.NewError("ORGANIZATION_DUPLICATE_CODE", "organization code already in use", "Org.Errors.DuplicateCode")
	ErrCycleDetected = serrors.NewError("CYCLE_DETECTED", "reparenting would create a cycle", "Org.Errors.CycleDetected")
	ErrTreeTooDeep   = serrors.NewError("TREE_TOO_DEEP", "organization tree exceeds maximum depth", "Org.Errors.TreeTooDeep")
)

// MaxTreeDepth bounds every traversal. Exceeding it means the persisted tree
// is corrupted; traversals fail with ErrTreeTooDeep instead of truncating,
// because a truncated descendant set would corrupt tenant-isolation decisions.
const MaxTreeDepth = 64

type Type string

const (
	TypeCompany    Type = "company"
	TypeDivision   Type = "division"
	TypeDepartment Type = "department"
	TypeTeam       Type = "team"
)

// Organization is one node in a forest of trees. A tenant boundary is not a
// separate entity: the node referenced as a company's root anchors the
// tenant, and membership in its descendant closure means "belongs to this
// tenant".
type Organization struct {
	id        uuid.UUID
	name      string
	code      *string
	typ       Type
	parentID  *uuid.UUID
	sortOrder int
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

type Option func(*Organization)

func WithID(id uuid.UUID) Option {
	return func(o *Organization) {
		o.id = id
	}
}

func WithCode(code string) Option {
	return func(o *Organization) {
		code = strings.TrimSpace(code)
		if code != "" {
			o.code = &code
		}
	}
}

func WithType(typ Type) Option {
	return func(o *Organization) {
		o.typ = typ
	}
}

func WithParentID(parentID *uuid.UUID) Option {
	return func(o *Organization) {
		o.parentID = parentID
	}
}

func WithSortOrder(sortOrder int) Option {
	return func(o *Organization) {
		o.sortOrder = sortOrder
	}
}

func WithIsActive(isActive bool) Option {
	return func(o *Organization) {
		o.isActive = isActive
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(o *Organization) {
		o.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(o *Organization) {
		o.updatedAt = updatedAt
	}
}

func New(name string, opts ...Option) *Organization {
	o := &Organization{
		id:        uuid.New(),
		name:      strings.TrimSpace(name),
		typ:       TypeDepartment,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Organization) ID() uuid.UUID        { return o.id }
func (o *Organization) Name() string         { return o.name }
func (o *Organization) Code() *string        { return o.code }
func (o *Organization) Type() Type           { return o.typ }
func (o *Organization) ParentID() *uuid.UUID { return o.parentID }
func (o *Organization) SortOrder() int       { return o.sortOrder }
func (o *Organization) IsActive() bool       { return o.isActive }
func (o *Organization) CreatedAt() time.Time { return o.createdAt }
func (o *Organization) UpdatedAt() time.Time { return o.updatedAt }

func (o *Organization) IsRoot() bool { return o.parentID == nil }

func (o *Organization) CodeOrEmpty() string {
	if o.code == nil {
		return ""
	}
	return *o.code
}

func (o *Organization) Rename(name string) {
	o.name = strings.TrimSpace(name)
	o.updatedAt = time.Now()
}

func (o *Organization) SetParent(parentID *uuid.UUID, sortOrder int) {
	o.parentID = parentID
	o.sortOrder = sortOrder
	o.updatedAt = time.Now()
}

func (o *Organization) SetSortOrder(sortOrder int) {
	o.sortOrder = sortOrder
	o.updatedAt = time.Now()
}

func (o *Organization) Deactivate() {
	o.isActive = false
	o.updatedAt = time.Now()
}

func (o *Organization) Activate() {
	o.isActive = true
	o.updatedAt = time.Now()
}
