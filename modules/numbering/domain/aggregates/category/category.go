package category

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/pkg/serrors"
)

var (
	ErrNotFound         = serrors.NewError("CATEGORY_NOT_FOUND", "allocation category not found", "Numbering.Errors.CategoryNotFound")
	ErrCategoryInactive = serrors.NewError("CATEGORY_INACTIVE", "allocation category is inactive", "Numbering.Errors.CategoryInactive")
	ErrDuplicateCode    = serrors.NewError("DUPLICATE_CATEGORY_CODE", "category code already in use for this tenant and kind", "Numbering.Errors.DuplicateCode")
	ErrInvalidCode      = serrors.NewError("INVALID_CATEGORY_CODE", "category code must be 2 to 6 characters", "Numbering.Errors.InvalidCode")
	ErrInvalidSequence  = serrors.NewError("INVALID_SEQUENCE", "sequence value must be positive", "Numbering.Errors.InvalidSequence")
)

type Kind string

const (
	KindEmployeeNumber Kind = "employee-number"
	KindAssetNumber    Kind = "asset-number"
	KindDocumentNumber Kind = "document-number"
)

// Category is a named sequence space scoped to one tenant. Its persisted
// sequence counter is owned by the allocation engine and mutated only through
// Repository.IncrementSequence, never in application memory.
type Category struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	kind      Kind
	code      string
	name      string
	sequence  int64
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

func New(tenantID uuid.UUID, kind Kind, code, name string) (*Category, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 2 || len(code) > 6 {
		return nil, ErrInvalidCode
	}
	return &Category{
		id:        uuid.New(),
		tenantID:  tenantID,
		kind:      kind,
		code:      code,
		name:      strings.TrimSpace(name),
		sequence:  0,
		isActive:  true,
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}, nil
}

func Hydrate(
	id uuid.UUID,
	tenantID uuid.UUID,
	kind Kind,
	code string,
	name string,
	sequence int64,
	isActive bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Category {
	return &Category{
		id:        id,
		tenantID:  tenantID,
		kind:      kind,
		code:      code,
		name:      name,
		sequence:  sequence,
		isActive:  isActive,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (c *Category) ID() uuid.UUID        { return c.id }
func (c *Category) TenantID() uuid.UUID  { return c.tenantID }
func (c *Category) Kind() Kind           { return c.kind }
func (c *Category) Code() string         { return c.code }
func (c *Category) Name() string         { return c.name }
func (c *Category) Sequence() int64      { return c.sequence }
func (c *Category) IsActive() bool       { return c.isActive }
func (c *Category) CreatedAt() time.Time { return c.createdAt }
func (c *Category) UpdatedAt() time.Time { return c.updatedAt }

// PeekNext previews the next sequence value without committing it.
func (c *Category) PeekNext() int64 { return c.sequence + 1 }

func (c *Category) Deactivate() {
	c.isActive = false
	c.updatedAt = time.Now()
}
