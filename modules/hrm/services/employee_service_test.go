package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadrohq/kadro/modules/hrm/domain/aggregates/employee"
	"github.com/kadrohq/kadro/modules/hrm/services"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	numbering "github.com/kadrohq/kadro/modules/numbering/services"
	"github.com/kadrohq/kadro/pkg/eventbus"
	"github.com/kadrohq/kadro/pkg/itf"
)

func newTestBus() eventbus.EventBus {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(log)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// fakeGate owns a fixed set of org nodes per tenant root.
type fakeGate struct {
	scopes map[uuid.UUID][]uuid.UUID
}

func (g *fakeGate) VerifyOwnership(ctx context.Context, nodeID, tenantRootID uuid.UUID) (bool, error) {
	for _, id := range g.scopes[tenantRootID] {
		if id == nodeID {
			return true, nil
		}
	}
	return false, nil
}

func (g *fakeGate) DescendantsOf(ctx context.Context, rootID uuid.UUID) ([]uuid.UUID, error) {
	return g.scopes[rootID], nil
}

// fakeLedger issues sequential employee numbers and tracks lifecycle calls.
type fakeLedger struct {
	mu       sync.Mutex
	seq      int64
	records  map[uuid.UUID]*allocation.Record
	assigned map[uuid.UUID]allocation.Target
	retired  map[uuid.UUID]string
	issueErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		records:  make(map[uuid.UUID]*allocation.Record),
		assigned: make(map[uuid.UUID]allocation.Target),
		retired:  make(map[uuid.UUID]string),
	}
}

func (l *fakeLedger) Issue(ctx context.Context, categoryID uuid.UUID) (*allocation.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.issueErr != nil {
		return nil, l.issueErr
	}
	l.seq++
	rec := allocation.New(uuid.New(), categoryID, fmt.Sprintf("ACME-EMP-%04d", l.seq), l.seq)
	l.records[rec.ID()] = rec
	return rec, nil
}

func (l *fakeLedger) Assign(ctx context.Context, recordID uuid.UUID, data *numbering.AssignTargetDTO) (*allocation.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[recordID]
	if !ok {
		return nil, allocation.ErrNotFound
	}
	target, err := allocation.NewTarget(data.TargetKind, data.TargetID)
	if err != nil {
		return nil, err
	}
	if err := rec.Assign(target); err != nil {
		return nil, err
	}
	l.assigned[recordID] = target
	return rec, nil
}

func (l *fakeLedger) Retire(ctx context.Context, recordID uuid.UUID, reason string) (*allocation.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[recordID]
	if !ok {
		return nil, allocation.ErrNotFound
	}
	if err := rec.Retire(reason); err != nil {
		return nil, err
	}
	l.retired[recordID] = reason
	return rec, nil
}

type memEmployeeRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*employee.Employee
	createErr error
}

func newMemEmployeeRepo() *memEmployeeRepo {
	return &memEmployeeRepo{rows: make(map[uuid.UUID]*employee.Employee)}
}

func (r *memEmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, employee.ErrNotFound
	}
	return e, nil
}

func (r *memEmployeeRepo) GetByNumber(ctx context.Context, employeeNumber string) (*employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.rows {
		if e.EmployeeNumber() == employeeNumber {
			return e, nil
		}
	}
	return nil, employee.ErrNotFound
}

func (r *memEmployeeRepo) FindByOrgIDs(ctx context.Context, orgIDs []uuid.UUID) ([]*employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := make(map[uuid.UUID]struct{}, len(orgIDs))
	for _, id := range orgIDs {
		allowed[id] = struct{}{}
	}
	out := make([]*employee.Employee, 0)
	for _, e := range r.rows {
		if _, ok := allowed[e.OrgID()]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEmployeeRepo) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.rows[e.ID()] = e
	return e, nil
}

func (r *memEmployeeRepo) Update(ctx context.Context, e *employee.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.ID()]; !ok {
		return employee.ErrNotFound
	}
	r.rows[e.ID()] = e
	return nil
}

type hrmFixture struct {
	svc      *services.EmployeeService
	repo     *memEmployeeRepo
	ledger   *fakeLedger
	tenantID uuid.UUID
	orgID    uuid.UUID
	deptID   uuid.UUID
	catID    uuid.UUID
	ctx      context.Context
}

func newHRMFixture(t *testing.T) *hrmFixture {
	t.Helper()
	tenantID := uuid.New()
	orgID := uuid.New()
	deptID := uuid.New()

	gate := &fakeGate{scopes: map[uuid.UUID][]uuid.UUID{
		tenantID: {tenantID, orgID, deptID},
		orgID:    {orgID},
	}}
	repo := newMemEmployeeRepo()
	ledger := newFakeLedger()
	svc := services.NewEmployeeService(repo, gate, ledger, newTestBus(), quietLogger())

	return &hrmFixture{
		svc:      svc,
		repo:     repo,
		ledger:   ledger,
		tenantID: tenantID,
		orgID:    orgID,
		deptID:   deptID,
		catID:    uuid.New(),
		ctx:      itf.Context(tenantID),
	}
}

func TestHire(t *testing.T) {
	t.Run("binds a freshly issued number to the new employee", func(t *testing.T) {
		f := newHRMFixture(t)

		e, err := f.svc.Hire(f.ctx, &services.HireEmployeeDTO{
			OrgID:      f.orgID,
			CategoryID: f.catID,
			FirstName:  "Ada",
			LastName:   "Lovelace",
			Email:      "ada@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "ACME-EMP-0001", e.EmployeeNumber())
		assert.True(t, e.IsActive())

		target, ok := f.ledger.assigned[e.AllocationID()]
		require.True(t, ok, "the allocation record must be assigned")
		assert.Equal(t, employee.TargetKind, target.Kind())
		assert.Equal(t, e.ID().String(), target.ID())
	})

	t.Run("rejects an org node outside the tenant", func(t *testing.T) {
		f := newHRMFixture(t)

		_, err := f.svc.Hire(f.ctx, &services.HireEmployeeDTO{
			OrgID:      uuid.New(),
			CategoryID: f.catID,
			FirstName:  "Eve",
			LastName:   "Intruder",
		})
		require.ErrorIs(t, err, services.ErrOrgOutsideTenant)
		assert.Empty(t, f.ledger.records, "no number may be issued for a rejected hire")
	})

	t.Run("retires the issued number when persisting the employee fails", func(t *testing.T) {
		f := newHRMFixture(t)
		f.repo.createErr = errors.New("disk full")

		_, err := f.svc.Hire(f.ctx, &services.HireEmployeeDTO{
			OrgID:      f.orgID,
			CategoryID: f.catID,
			FirstName:  "Ada",
			LastName:   "Lovelace",
		})
		require.Error(t, err)
		require.Len(t, f.ledger.retired, 1, "the orphaned number must be retired")
	})

	t.Run("validation failure", func(t *testing.T) {
		f := newHRMFixture(t)
		_, err := f.svc.Hire(f.ctx, &services.HireEmployeeDTO{OrgID: f.orgID, CategoryID: f.catID})
		require.Error(t, err)
	})
}

func TestTransfer(t *testing.T) {
	f := newHRMFixture(t)

	e, err := f.svc.Hire(f.ctx, &services.HireEmployeeDTO{
		OrgID:      f.orgID,
		CategoryID: f.catID,
		FirstName:  "Ada",
		LastName:   "Lovelace",
	})
	require.NoError(t, err)

	t.Run("moves the employee inside the tenant", func(t *testing.T) {
		got, err := f.svc.Transfer(f.ctx, e.ID(), f.deptID)
		require.NoError(t, err)
		assert.Equal(t, f.deptID, got.OrgID())
	})

	t.Run("rejects a destination outside the tenant", func(t *testing.T) {
		_, err := f.svc.Transfer(f.ctx, e.ID(), uuid.New())
		require.ErrorIs(t, err, services.ErrOrgOutsideTenant)
	})
}

func TestOffboard(t *testing.T) {
	f := newHRMFixture(t)

	e, err := f.svc.Hire(f.ctx, &services.HireEmployeeDTO{
		OrgID:      f.orgID,
		CategoryID: f.catID,
		FirstName:  "Ada",
		LastName:   "Lovelace",
	})
	require.NoError(t, err)

	got, err := f.svc.Offboard(f.ctx, e.ID(), "left the company")
	require.NoError(t, err)
	assert.False(t, got.IsActive())
	assert.Equal(t, "left the company", f.ledger.retired[e.AllocationID()])

	_, err = f.svc.Offboard(f.ctx, e.ID(), "again")
	require.ErrorIs(t, err, employee.ErrAlreadyOffboarded)
}

func TestListScoping(t *testing.T) {
	f := newHRMFixture(t)

	inScope, err := f.svc.Hire(f.ctx, &services.HireEmployeeDTO{
		OrgID:      f.orgID,
		CategoryID: f.catID,
		FirstName:  "Ada",
		LastName:   "Lovelace",
	})
	require.NoError(t, err)

	t.Run("list returns the tenant's employees", func(t *testing.T) {
		out, err := f.svc.List(f.ctx)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, inScope.ID(), out[0].ID())
	})

	t.Run("an unknown tenant sees nothing", func(t *testing.T) {
		out, err := f.svc.List(itf.Context(uuid.New()))
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("subtree listing verifies ownership first", func(t *testing.T) {
		out, err := f.svc.ListByOrgUnit(f.ctx, f.orgID)
		require.NoError(t, err)
		require.Len(t, out, 1)

		_, err = f.svc.ListByOrgUnit(f.ctx, uuid.New())
		require.ErrorIs(t, err, services.ErrOrgOutsideTenant)
	})
}
