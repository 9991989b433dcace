package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadrohq/kadro/modules/org/domain/aggregates/organization"
	"github.com/kadrohq/kadro/modules/org/services"
	"github.com/kadrohq/kadro/pkg/itf"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newGateFixture(t *testing.T) (*services.TenantGate, *memOrgRepo, *organization.Organization, *organization.Organization) {
	t.Helper()
	repo := newMemOrgRepo()
	svc := services.NewOrgService(repo, newTestBus())
	gate := services.NewTenantGate(svc, quietLogger())

	root := newNode("Acme", nil, organization.WithCode("ACME"), organization.WithType(organization.TypeCompany))
	dept := newNode("Engineering", root)
	repo.add(root, dept)
	return gate, repo, root, dept
}

func TestVerifyOwnership(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	gate, repo, root, dept := newGateFixture(t)

	stranger := organization.New("Stranger Co")
	repo.add(stranger)

	t.Run("descendants and the root itself are owned", func(t *testing.T) {
		owned, err := gate.VerifyOwnership(ctx, dept.ID(), root.ID())
		require.NoError(t, err)
		assert.True(t, owned)

		owned, err = gate.VerifyOwnership(ctx, root.ID(), root.ID())
		require.NoError(t, err)
		assert.True(t, owned)
	})

	t.Run("nodes of other trees are not", func(t *testing.T) {
		owned, err := gate.VerifyOwnership(ctx, stranger.ID(), root.ID())
		require.NoError(t, err)
		assert.False(t, owned)
	})
}

func TestTenantGateFailsClosed(t *testing.T) {
	ctx := itf.ContextWithoutTenant()

	t.Run("missing root yields an empty scope", func(t *testing.T) {
		gate, _, _, dept := newGateFixture(t)
		ids, err := gate.DescendantsOf(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, ids)

		owned, err := gate.VerifyOwnership(ctx, dept.ID(), uuid.New())
		require.NoError(t, err)
		assert.False(t, owned)
	})

	t.Run("deactivated root yields an empty scope", func(t *testing.T) {
		gate, _, root, dept := newGateFixture(t)
		root.Deactivate()

		ids, err := gate.DescendantsOf(ctx, root.ID())
		require.NoError(t, err)
		assert.Empty(t, ids)

		owned, err := gate.VerifyOwnership(ctx, dept.ID(), root.ID())
		require.NoError(t, err)
		assert.False(t, owned)
	})
}

func TestTenantGateMemoization(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	gate, repo, root, _ := newGateFixture(t)

	first, err := gate.DescendantsOf(ctx, root.ID())
	require.NoError(t, err)
	callsAfterFirst := repo.getChildrenCalls

	second, err := gate.DescendantsOf(ctx, root.ID())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, repo.getChildrenCalls, "second lookup must come from the cache")

	gate.InvalidateAll()
	_, err = gate.DescendantsOf(ctx, root.ID())
	require.NoError(t, err)
	assert.Greater(t, repo.getChildrenCalls, callsAfterFirst, "invalidation must force a recompute")
}

func TestTenantGateInvalidatesOnTreeMutations(t *testing.T) {
	ctx := itf.ContextWithoutTenant()

	repo := newMemOrgRepo()
	bus := newTestBus()
	svc := services.NewOrgService(repo, bus)
	gate := services.NewTenantGate(svc, quietLogger(), services.WithCacheTTL(time.Hour))
	gate.Register(bus)

	root := newNode("Acme", nil, organization.WithCode("ACME"))
	repo.add(root)

	ids, err := gate.DescendantsOf(ctx, root.ID())
	require.NoError(t, err)
	require.Len(t, ids, 1)

	// Creating a child publishes an event, which must drop the cached scope.
	rootID := root.ID()
	_, err = svc.Create(ctx, &services.CreateOrganizationDTO{Name: "Eng", ParentID: &rootID})
	require.NoError(t, err)

	ids, err = gate.DescendantsOf(ctx, root.ID())
	require.NoError(t, err)
	assert.Len(t, ids, 2, "new child must appear in the recomputed scope")
}

func TestScopeQuery(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	gate, _, root, dept := newGateFixture(t)

	t.Run("appends the filter and binds the scope ids", func(t *testing.T) {
		query, args, err := gate.ScopeQuery(ctx, "SELECT id FROM employees", "org_id", root.ID())
		require.NoError(t, err)
		assert.Equal(t, "SELECT id FROM employees WHERE org_id = ANY($1)", query)
		require.Len(t, args, 1)
		assert.ElementsMatch(t, []uuid.UUID{root.ID(), dept.ID()}, args[0])
	})

	t.Run("unknown tenant binds an empty id set", func(t *testing.T) {
		_, args, err := gate.ScopeQuery(ctx, "SELECT id FROM employees", "org_id", uuid.New())
		require.NoError(t, err)
		require.Len(t, args, 1)
		assert.Empty(t, args[0])
	})
}

func TestTenantCode(t *testing.T) {
	ctx := itf.ContextWithoutTenant()
	gate, _, root, _ := newGateFixture(t)

	t.Run("resolves the root code", func(t *testing.T) {
		code, err := gate.TenantCode(ctx, root.ID())
		require.NoError(t, err)
		assert.Equal(t, "ACME", code)
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := gate.TenantCode(ctx, uuid.New())
		require.ErrorIs(t, err, services.ErrTenantRootMissing)
	})

	t.Run("deactivated root", func(t *testing.T) {
		root.Deactivate()
		_, err := gate.TenantCode(ctx, root.ID())
		require.ErrorIs(t, err, services.ErrTenantRootMissing)
	})
}
