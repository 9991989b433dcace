package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/kadrohq/kadro/modules/org/domain/aggregates/organization"
	"github.com/kadrohq/kadro/pkg/eventbus"
	"github.com/kadrohq/kadro/pkg/serrors"
)

var ErrTenantRootMissing = serrors.NewError("TENANT_ROOT_MISSING", "tenant root organization missing or inactive", "Org.Errors.TenantRootMissing")

const scopeCacheKeyPrefix = "kadro:tenantscope:"

type scopeCacheEntry struct {
	ids     []uuid.UUID
	expires time.Time
}

// TenantGate answers "does this node belong to this tenant" for every other
// domain. It memoizes descendant sets per tenant root; the cache is advisory
// only, because mutations re-verify ownership inside their own transaction.
type TenantGate struct {
	orgs  *OrgService
	rdb   *redis.Client
	log   *logrus.Logger
	ttl   time.Duration
	mu    sync.RWMutex
	local map[uuid.UUID]scopeCacheEntry
}

type TenantGateOption func(*TenantGate)

func WithRedisCache(rdb *redis.Client) TenantGateOption {
	return func(g *TenantGate) {
		g.rdb = rdb
	}
}

func WithCacheTTL(ttl time.Duration) TenantGateOption {
	return func(g *TenantGate) {
		g.ttl = ttl
	}
}

func NewTenantGate(orgs *OrgService, log *logrus.Logger, opts ...TenantGateOption) *TenantGate {
	g := &TenantGate{
		orgs:  orgs,
		log:   log,
		ttl:   30 * time.Second,
		local: make(map[uuid.UUID]scopeCacheEntry),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register subscribes cache invalidation to every tree mutation event. The
// tenant root of an arbitrary node is not known cheaply, so any mutation
// drops the whole cache.
func (g *TenantGate) Register(bus eventbus.EventBus) {
	bus.Subscribe(func(ev *organization.ReparentedEvent) { g.InvalidateAll() })
	bus.Subscribe(func(ev *organization.ReorderedEvent) { g.InvalidateAll() })
	bus.Subscribe(func(ev *organization.DeactivatedEvent) { g.InvalidateAll() })
	bus.Subscribe(func(ev *organization.CreatedEvent) { g.InvalidateAll() })
}

// DescendantsOf returns the tenant's scope: the root organization itself plus
// the transitive closure of its children. A missing or deactivated root
// yields an empty set — the gate fails closed and logs at error level, since
// a vanished tenant root is an operator problem, not a caller problem.
func (g *TenantGate) DescendantsOf(ctx context.Context, tenantRootID uuid.UUID) ([]uuid.UUID, error) {
	if ids, ok := g.fromLocal(tenantRootID); ok {
		return ids, nil
	}
	if ids, ok := g.fromRedis(ctx, tenantRootID); ok {
		g.storeLocal(tenantRootID, ids)
		return ids, nil
	}

	root, err := g.orgs.GetByID(ctx, tenantRootID)
	if err != nil {
		if errors.Is(err, organization.ErrNotFound) {
			g.log.WithField("tenant_root_id", tenantRootID).Error("tenant gate: tenant root organization not found; failing closed")
			return []uuid.UUID{}, nil
		}
		return nil, err
	}
	if !root.IsActive() {
		g.log.WithField("tenant_root_id", tenantRootID).Error("tenant gate: tenant root organization deactivated; failing closed")
		return []uuid.UUID{}, nil
	}

	ids, err := g.orgs.DescendantsIncludingSelf(ctx, tenantRootID)
	if err != nil {
		return nil, err
	}

	g.storeLocal(tenantRootID, ids)
	g.storeRedis(ctx, tenantRootID, ids)
	return ids, nil
}

// VerifyOwnership reports whether nodeID is inside the tenant's scope. The
// tenant's own root is part of its scope.
func (g *TenantGate) VerifyOwnership(ctx context.Context, nodeID, tenantRootID uuid.UUID) (bool, error) {
	ids, err := g.DescendantsOf(ctx, tenantRootID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == nodeID {
			return true, nil
		}
	}
	return false, nil
}

// ScopeQuery appends a tenant filter on orgIDField to baseQuery. When the
// descendant set is empty the ANY over an empty array matches no rows, so
// the scoped query returns an empty result set rather than an unscoped one.
func (g *TenantGate) ScopeQuery(ctx context.Context, baseQuery, orgIDField string, tenantRootID uuid.UUID) (string, []any, error) {
	ids, err := g.DescendantsOf(ctx, tenantRootID)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s WHERE %s = ANY($1)", baseQuery, orgIDField), []any{ids}, nil
}

func (g *TenantGate) InvalidateAll() {
	g.mu.Lock()
	g.local = make(map[uuid.UUID]scopeCacheEntry)
	g.mu.Unlock()
}

func (g *TenantGate) fromLocal(tenantRootID uuid.UUID) ([]uuid.UUID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	entry, ok := g.local[tenantRootID]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.ids, true
}

func (g *TenantGate) storeLocal(tenantRootID uuid.UUID, ids []uuid.UUID) {
	g.mu.Lock()
	g.local[tenantRootID] = scopeCacheEntry{ids: ids, expires: time.Now().Add(g.ttl)}
	g.mu.Unlock()
}

func (g *TenantGate) fromRedis(ctx context.Context, tenantRootID uuid.UUID) ([]uuid.UUID, bool) {
	if g.rdb == nil {
		return nil, false
	}
	raw, err := g.rdb.Get(ctx, scopeCacheKeyPrefix+tenantRootID.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			g.log.WithError(err).Warn("tenant gate: redis read failed; recomputing scope")
		}
		return nil, false
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		g.log.WithError(err).Warn("tenant gate: corrupt cached scope; recomputing")
		return nil, false
	}
	return ids, true
}

func (g *TenantGate) storeRedis(ctx context.Context, tenantRootID uuid.UUID, ids []uuid.UUID) {
	if g.rdb == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := g.rdb.Set(ctx, scopeCacheKeyPrefix+tenantRootID.String(), raw, g.ttl).Err(); err != nil {
		g.log.WithError(err).Warn("tenant gate: redis write failed")
	}
}

// TenantCode resolves the short code of the tenant's root organization; the
// allocation engine embeds it into every rendered identifier.
func (g *TenantGate) TenantCode(ctx context.Context, tenantRootID uuid.UUID) (string, error) {
	root, err := g.orgs.GetByID(ctx, tenantRootID)
	if err != nil {
		if errors.Is(err, organization.ErrNotFound) {
			return "", ErrTenantRootMissing
		}
		return "", err
	}
	if !root.IsActive() {
		return "", ErrTenantRootMissing
	}
	return root.CodeOrEmpty(), nil
}
