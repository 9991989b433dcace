package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadrohq/kadro/modules/org/domain/aggregates/organization"
	"github.com/kadrohq/kadro/modules/org/services"
	"github.com/kadrohq/kadro/pkg/eventbus"
	"github.com/kadrohq/kadro/pkg/itf"
)

func newTestBus() eventbus.EventBus {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return eventbus.NewEventPublisher(log)
}

// memOrgRepo stores nodes in insertion order so traversal results are
// deterministic.
type memOrgRepo struct {
	mu    sync.Mutex
	nodes []*organization.Organization

	getByIDCalls     int
	getChildrenCalls int
}

func newMemOrgRepo() *memOrgRepo {
	return &memOrgRepo{}
}

func (r *memOrgRepo) add(orgs ...*organization.Organization) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, orgs...)
}

func (r *memOrgRepo) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getByIDCalls++
	for _, n := range r.nodes {
		if n.ID() == id {
			return n, nil
		}
	}
	return nil, organization.ErrNotFound
}

func (r *memOrgRepo) GetByCode(ctx context.Context, code string) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.CodeOrEmpty() == code {
			return n, nil
		}
	}
	return nil, organization.ErrNotFound
}

func (r *memOrgRepo) GetChildren(ctx context.Context, parentIDs []uuid.UUID) ([]*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getChildrenCalls++
	parents := make(map[uuid.UUID]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = struct{}{}
	}
	var out []*organization.Organization
	for _, n := range r.nodes {
		if n.ParentID() == nil {
			continue
		}
		if _, ok := parents[*n.ParentID()]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memOrgRepo) GetPaginated(ctx context.Context, params *organization.FindParams) ([]*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*organization.Organization, len(r.nodes))
	copy(out, r.nodes)
	return out, nil
}

func (r *memOrgRepo) Create(ctx context.Context, org *organization.Organization) (*organization.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if org.CodeOrEmpty() != "" && n.CodeOrEmpty() == org.CodeOrEmpty() {
			return nil, organization.ErrDuplicateCode
		}
	}
	r.nodes = append(r.nodes, org)
	return org, nil
}

func (r *memOrgRepo) Update(ctx context.Context, org *organization.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.nodes {
		if n.ID() == org.ID() {
			r.nodes[i] = org
			return nil
		}
	}
	return organization.ErrNotFound
}

func (r *memOrgRepo) NextSiblingSortOrder(ctx context.Context, parentID *uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := -1
	for _, n := range r.nodes {
		sameParent := (n.ParentID() == nil && parentID == nil) ||
			(n.ParentID() != nil && parentID != nil && *n.ParentID() == *parentID)
		if sameParent && n.SortOrder() > max {
			max = n.SortOrder()
		}
	}
	return max + 1, nil
}

func (r *memOrgRepo) UpdateSortOrders(ctx context.Context, orderedIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pos, id := range orderedIDs {
		for _, n := range r.nodes {
			if n.ID() == id {
				n.SetSortOrder(pos)
			}
		}
	}
	return nil
}

func (r *memOrgRepo) DeactivateMany(ctx context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		for _, n := range r.nodes {
			if n.ID() == id {
				n.Deactivate()
			}
		}
	}
	return nil
}

func newNode(name string, parent *organization.Organization, opts ...organization.Option) *organization.Organization {
	if parent != nil {
		parentID := parent.ID()
		opts = append(opts, organization.WithParentID(&parentID))
	}
	return organization.New(name, opts...)
}

func TestDescendants(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())

	root := newNode("Acme", nil, organization.WithCode("ACME"), organization.WithType(organization.TypeCompany))
	engineering := newNode("Engineering", root)
	sales := newNode("Sales", root)
	platform := newNode("Platform", engineering)
	repo.add(root, engineering, sales, platform)

	other := newNode("Other Co", nil)
	repo.add(other, newNode("Other Dept", other))

	t.Run("walks breadth-first and stays inside the subtree", func(t *testing.T) {
		ids, err := svc.Descendants(ctx, root.ID())
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{engineering.ID(), sales.ID(), platform.ID()}, ids)
	})

	t.Run("including self puts the root first", func(t *testing.T) {
		ids, err := svc.DescendantsIncludingSelf(ctx, root.ID())
		require.NoError(t, err)
		require.Len(t, ids, 4)
		assert.Equal(t, root.ID(), ids[0])
	})

	t.Run("a leaf has no descendants", func(t *testing.T) {
		ids, err := svc.Descendants(ctx, platform.ID())
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestDescendantsCycleSafety(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())

	// Persisted cycle: a <-> b. The traversal must terminate and visit each
	// node once.
	a := organization.New("a")
	b := organization.New("b")
	aID, bID := a.ID(), b.ID()
	a.SetParent(&bID, 0)
	b.SetParent(&aID, 0)
	repo.add(a, b)

	ids, err := svc.Descendants(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID()}, ids)
}

func TestDescendantsDepthGuard(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())

	chain := make([]*organization.Organization, 0, organization.MaxTreeDepth+2)
	var parent *organization.Organization
	for i := 0; i < organization.MaxTreeDepth+2; i++ {
		n := newNode("level", parent)
		chain = append(chain, n)
		parent = n
	}
	repo.add(chain...)

	_, err := svc.Descendants(ctx, chain[0].ID())
	require.ErrorIs(t, err, organization.ErrTreeTooDeep)
}

func TestAncestors(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())

	root := newNode("Acme", nil)
	division := newNode("EMEA", root)
	team := newNode("Support", division)
	repo.add(root, division, team)

	t.Run("returns the chain root-first", func(t *testing.T) {
		ids, err := svc.Ancestors(ctx, team.ID())
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{root.ID(), division.ID()}, ids)
	})

	t.Run("a root has no ancestors", func(t *testing.T) {
		ids, err := svc.Ancestors(ctx, root.ID())
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("a persisted parent cycle is reported, not looped", func(t *testing.T) {
		a := organization.New("a")
		b := organization.New("b")
		aID, bID := a.ID(), b.ID()
		a.SetParent(&bID, 0)
		b.SetParent(&aID, 0)
		repo.add(a, b)

		_, err := svc.Ancestors(ctx, a.ID())
		require.ErrorIs(t, err, organization.ErrTreeTooDeep)
	})
}

func TestReparent(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())

	n1 := newNode("n1", nil)
	n2 := newNode("n2", n1)
	n3 := newNode("n3", n2)
	repo.add(n1, n2, n3)

	t.Run("rejects making a node its own descendant", func(t *testing.T) {
		err := svc.Reparent(ctx, n1.ID(), ptr(n3.ID()))
		require.ErrorIs(t, err, organization.ErrCycleDetected)

		// Tree unchanged.
		got, err := repo.GetByID(ctx, n1.ID())
		require.NoError(t, err)
		assert.Nil(t, got.ParentID())
	})

	t.Run("rejects self-parenting", func(t *testing.T) {
		err := svc.Reparent(ctx, n2.ID(), ptr(n2.ID()))
		require.ErrorIs(t, err, organization.ErrCycleDetected)
	})

	t.Run("moves a subtree and sorts it last among new siblings", func(t *testing.T) {
		sibling := newNode("sibling", n1, organization.WithSortOrder(5))
		repo.add(sibling)

		err := svc.Reparent(ctx, n3.ID(), ptr(n1.ID()))
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, n3.ID())
		require.NoError(t, err)
		require.NotNil(t, got.ParentID())
		assert.Equal(t, n1.ID(), *got.ParentID())
		assert.Equal(t, 6, got.SortOrder())
	})

	t.Run("nil parent detaches into a new root", func(t *testing.T) {
		err := svc.Reparent(ctx, n2.ID(), nil)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, n2.ID())
		require.NoError(t, err)
		assert.Nil(t, got.ParentID())
	})

	t.Run("unknown new parent", func(t *testing.T) {
		err := svc.Reparent(ctx, n2.ID(), ptr(uuid.New()))
		require.ErrorIs(t, err, organization.ErrNotFound)
	})
}

func TestReorder(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())

	parent := newNode("parent", nil)
	c1 := newNode("c1", parent, organization.WithSortOrder(0))
	c2 := newNode("c2", parent, organization.WithSortOrder(1))
	c3 := newNode("c3", parent, organization.WithSortOrder(2))
	repo.add(parent, c1, c2, c3)

	parentID := parent.ID()
	require.NoError(t, svc.Reorder(ctx, &parentID, []uuid.UUID{c3.ID(), c1.ID(), c2.ID()}))

	for i, id := range []uuid.UUID{c3.ID(), c1.ID(), c2.ID()} {
		got, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i, got.SortOrder())
	}
}

func TestDeactivate(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())

	root := newNode("root", nil)
	child := newNode("child", root)
	grandchild := newNode("grandchild", child)
	repo.add(root, child, grandchild)

	t.Run("without cascade only the node goes inactive", func(t *testing.T) {
		require.NoError(t, svc.Deactivate(ctx, child.ID(), false))
		got, _ := repo.GetByID(ctx, child.ID())
		assert.False(t, got.IsActive())
		got, _ = repo.GetByID(ctx, grandchild.ID())
		assert.True(t, got.IsActive())
	})

	t.Run("cascade covers the whole subtree", func(t *testing.T) {
		require.NoError(t, svc.Deactivate(ctx, root.ID(), true))
		for _, id := range []uuid.UUID{root.ID(), child.ID(), grandchild.ID()} {
			got, _ := repo.GetByID(ctx, id)
			assert.False(t, got.IsActive())
		}
	})
}

func TestCreateOrganization(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())

	root, err := svc.Create(ctx, &services.CreateOrganizationDTO{
		Name: "Acme",
		Code: "ACME",
		Type: "company",
	})
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	assert.Equal(t, 0, root.SortOrder())

	rootID := root.ID()
	first, err := svc.Create(ctx, &services.CreateOrganizationDTO{Name: "Eng", ParentID: &rootID})
	require.NoError(t, err)
	second, err := svc.Create(ctx, &services.CreateOrganizationDTO{Name: "Sales", ParentID: &rootID})
	require.NoError(t, err)
	assert.Equal(t, 0, first.SortOrder())
	assert.Equal(t, 1, second.SortOrder())

	t.Run("validation failure", func(t *testing.T) {
		_, err := svc.Create(ctx, &services.CreateOrganizationDTO{Name: ""})
		require.Error(t, err)
	})
}

func ptr[T any](v T) *T { return &v }
