package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/category"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/iprange"
	"github.com/kadrohq/kadro/pkg/eventbus"
)

func newTestBus() eventbus.EventBus {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(log)
}

// memCategoryRepo keeps category rows behind a mutex so IncrementSequence is
// serialized exactly like the row-locked store it stands in for.
type memCategoryRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*catRow
}

type catRow struct {
	tenantID uuid.UUID
	kind     category.Kind
	code     string
	name     string
	sequence int64
	isActive bool
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{rows: make(map[uuid.UUID]*catRow)}
}

func (r *memCategoryRepo) add(c *category.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID()] = &catRow{
		tenantID: c.TenantID(),
		kind:     c.Kind(),
		code:     c.Code(),
		name:     c.Name(),
		sequence: c.Sequence(),
		isActive: c.IsActive(),
	}
}

func (r *memCategoryRepo) materialize(id uuid.UUID, row *catRow) *category.Category {
	return category.Hydrate(id, row.tenantID, row.kind, row.code, row.name, row.sequence, row.isActive, time.Now(), time.Now())
}

func (r *memCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, category.ErrNotFound
	}
	return r.materialize(id, row), nil
}

func (r *memCategoryRepo) GetByCode(ctx context.Context, kind category.Kind, code string) (*category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.kind == kind && row.code == code {
			return r.materialize(id, row), nil
		}
	}
	return nil, category.ErrNotFound
}

func (r *memCategoryRepo) List(ctx context.Context) ([]*category.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*category.Category, 0, len(r.rows))
	for id, row := range r.rows {
		out = append(out, r.materialize(id, row))
	}
	return out, nil
}

func (r *memCategoryRepo) Create(ctx context.Context, c *category.Category) (*category.Category, error) {
	r.mu.Lock()
	for _, row := range r.rows {
		if row.tenantID == c.TenantID() && row.kind == c.Kind() && row.code == c.Code() {
			r.mu.Unlock()
			return nil, category.ErrDuplicateCode
		}
	}
	r.mu.Unlock()
	r.add(c)
	return c, nil
}

func (r *memCategoryRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return category.ErrNotFound
	}
	row.isActive = false
	return nil
}

func (r *memCategoryRepo) IncrementSequence(ctx context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return 0, category.ErrNotFound
	}
	if !row.isActive {
		return 0, category.ErrCategoryInactive
	}
	row.sequence++
	return row.sequence, nil
}

type memRecordRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*allocation.Record
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{rows: make(map[uuid.UUID]*allocation.Record)}
}

func (r *memRecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*allocation.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[id]
	if !ok {
		return nil, allocation.ErrNotFound
	}
	return rec, nil
}

func (r *memRecordRepo) GetByFullIdentifier(ctx context.Context, fullID string) (*allocation.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.FullIdentifier() == fullID {
			return rec, nil
		}
	}
	return nil, allocation.ErrNotFound
}

func (r *memRecordRepo) FindByStatus(ctx context.Context, categoryID uuid.UUID, status allocation.Status) ([]*allocation.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*allocation.Record
	for _, rec := range r.rows {
		if rec.CategoryID() == categoryID && rec.Status() == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memRecordRepo) Create(ctx context.Context, rec *allocation.Record) (*allocation.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.CategoryID() == rec.CategoryID() && existing.Sequence() == rec.Sequence() {
			return nil, allocation.ErrDuplicateIssue
		}
	}
	r.rows[rec.ID()] = rec
	return rec, nil
}

func (r *memRecordRepo) Update(ctx context.Context, rec *allocation.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[rec.ID()]; !ok {
		return allocation.ErrNotFound
	}
	r.rows[rec.ID()] = rec
	return nil
}

func (r *memRecordRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (total, inUse, retired int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.rows {
		if rec.CategoryID() != categoryID {
			continue
		}
		total++
		switch rec.Status() {
		case allocation.StatusInUse:
			inUse++
		case allocation.StatusRetired:
			retired++
		}
	}
	return total, inUse, retired, nil
}

type memRangeRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*iprange.Range
}

func newMemRangeRepo() *memRangeRepo {
	return &memRangeRepo{rows: make(map[uuid.UUID]*iprange.Range)}
}

func (r *memRangeRepo) GetByID(ctx context.Context, id uuid.UUID) (*iprange.Range, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rng, ok := r.rows[id]
	if !ok {
		return nil, iprange.ErrNotFound
	}
	return rng, nil
}

func (r *memRangeRepo) List(ctx context.Context) ([]*iprange.Range, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*iprange.Range, 0, len(r.rows))
	for _, rng := range r.rows {
		out = append(out, rng)
	}
	return out, nil
}

func (r *memRangeRepo) Create(ctx context.Context, rng *iprange.Range) (*iprange.Range, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[rng.ID()] = rng
	return rng, nil
}

type memAssignmentRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*iprange.Assignment
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{rows: make(map[uuid.UUID]*iprange.Assignment)}
}

func (r *memAssignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*iprange.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, iprange.ErrAssignmentNotFound
	}
	return a, nil
}

func (r *memAssignmentRepo) GetByAddress(ctx context.Context, address string) (*iprange.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.Address() == address {
			return a, nil
		}
	}
	return nil, iprange.ErrAssignmentNotFound
}

func (r *memAssignmentRepo) FindByStatus(ctx context.Context, rangeID uuid.UUID, status allocation.Status) ([]*iprange.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*iprange.Assignment
	for _, a := range r.rows {
		if a.RangeID() == rangeID && a.Status() == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAssignmentRepo) ListByRange(ctx context.Context, rangeID uuid.UUID) ([]*iprange.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*iprange.Assignment
	for _, a := range r.rows {
		if a.RangeID() == rangeID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memAssignmentRepo) Create(ctx context.Context, a *iprange.Assignment) (*iprange.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Address() == a.Address() {
			return nil, iprange.ErrAddressAlreadyAllocated
		}
	}
	r.rows[a.ID()] = a
	return a, nil
}

func (r *memAssignmentRepo) Update(ctx context.Context, a *iprange.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[a.ID()]; !ok {
		return iprange.ErrAssignmentNotFound
	}
	r.rows[a.ID()] = a
	return nil
}

func (r *memAssignmentRepo) CountByRange(ctx context.Context, rangeID uuid.UUID) (inUse, retired int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.RangeID() != rangeID {
			continue
		}
		switch a.Status() {
		case allocation.StatusInUse:
			inUse++
		case allocation.StatusRetired:
			retired++
		}
	}
	return inUse, retired, nil
}

// stubTenants answers a fixed tenant code for any root id.
type stubTenants struct {
	code string
}

func (s stubTenants) TenantCode(ctx context.Context, tenantRootID uuid.UUID) (string, error) {
	return s.code, nil
}
