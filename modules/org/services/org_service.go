package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/modules/org/domain/aggregates/organization"
	"github.com/kadrohq/kadro/pkg/composables"
	"github.com/kadrohq/kadro/pkg/eventbus"
)

type OrgService struct {
	repo      organization.Repository
	publisher eventbus.EventBus
}

func NewOrgService(repo organization.Repository, publisher eventbus.EventBus) *OrgService {
	return &OrgService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *OrgService) GetByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*organization.Organization, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *OrgService) Create(ctx context.Context, data *CreateOrganizationDTO) (*organization.Organization, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) (*organization.Organization, error) {
		entity, err := data.ToEntity()
		if err != nil {
			return nil, err
		}
		sortOrder, err := s.repo.NextSiblingSortOrder(txCtx, entity.ParentID())
		if err != nil {
			return nil, err
		}
		entity.SetSortOrder(sortOrder)
		created, err := s.repo.Create(txCtx, entity)
		if err != nil {
			return nil, err
		}
		s.publisher.Publish(organization.NewCreatedEvent(created))
		return created, nil
	})
}

// Descendants walks children edges breadth-first starting below nodeID.
// The walk carries a visited set and a depth counter: a persisted cycle or a
// tree deeper than organization.MaxTreeDepth fails with ErrTreeTooDeep rather
// than silently truncating the result.
func (s *OrgService) Descendants(ctx context.Context, nodeID uuid.UUID) ([]uuid.UUID, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]uuid.UUID, error) {
		return s.descendants(txCtx, nodeID, false)
	})
}

func (s *OrgService) DescendantsIncludingSelf(ctx context.Context, nodeID uuid.UUID) ([]uuid.UUID, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]uuid.UUID, error) {
		return s.descendants(txCtx, nodeID, true)
	})
}

func (s *OrgService) descendants(ctx context.Context, nodeID uuid.UUID, includeSelf bool) ([]uuid.UUID, error) {
	visited := map[uuid.UUID]struct{}{nodeID: {}}
	out := make([]uuid.UUID, 0, 16)
	if includeSelf {
		out = append(out, nodeID)
	}

	frontier := []uuid.UUID{nodeID}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= organization.MaxTreeDepth {
			return nil, organization.ErrTreeTooDeep
		}
		children, err := s.repo.GetChildren(ctx, frontier)
		if err != nil {
			return nil, err
		}
		next := make([]uuid.UUID, 0, len(children))
		for _, child := range children {
			if _, seen := visited[child.ID()]; seen {
				continue
			}
			visited[child.ID()] = struct{}{}
			out = append(out, child.ID())
			next = append(next, child.ID())
		}
		frontier = next
	}
	return out, nil
}

// Ancestors walks parent links from nodeID up to (but not including) the
// first node with no parent, returned root-first. The same depth guard
// applies: a parent chain longer than MaxTreeDepth indicates corruption.
func (s *OrgService) Ancestors(ctx context.Context, nodeID uuid.UUID) ([]uuid.UUID, error) {
	return composables.InTxResult(ctx, func(txCtx context.Context) ([]uuid.UUID, error) {
		node, err := s.repo.GetByID(txCtx, nodeID)
		if err != nil {
			return nil, err
		}

		chain := make([]uuid.UUID, 0, 8)
		seen := map[uuid.UUID]struct{}{nodeID: {}}
		for depth := 0; node.ParentID() != nil; depth++ {
			if depth >= organization.MaxTreeDepth {
				return nil, organization.ErrTreeTooDeep
			}
			parentID := *node.ParentID()
			if _, dup := seen[parentID]; dup {
				return nil, organization.ErrTreeTooDeep
			}
			seen[parentID] = struct{}{}
			chain = append(chain, parentID)
			node, err = s.repo.GetByID(txCtx, parentID)
			if err != nil {
				return nil, err
			}
		}

		// chain was collected leaf-to-root; callers expect root-first.
		for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
			chain[i], chain[j] = chain[j], chain[i]
		}
		return chain, nil
	})
}

// WouldCreateCycle reports whether attaching nodeID under proposedParentID
// would make a node its own ancestor.
func (s *OrgService) WouldCreateCycle(ctx context.Context, nodeID, proposedParentID uuid.UUID) (bool, error) {
	if nodeID == proposedParentID {
		return true, nil
	}
	descendants, err := s.Descendants(ctx, nodeID)
	if err != nil {
		return false, err
	}
	for _, id := range descendants {
		if id == proposedParentID {
			return true, nil
		}
	}
	return false, nil
}

// Reparent moves nodeID under newParentID, re-sorting it last among its new
// siblings. A nil newParentID detaches the node into a root. The cycle check
// and the pointer update share one transaction, so the tree is unchanged on
// any failure.
func (s *OrgService) Reparent(ctx context.Context, nodeID uuid.UUID, newParentID *uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		node, err := s.repo.GetByID(txCtx, nodeID)
		if err != nil {
			return err
		}

		if newParentID != nil {
			cycle, err := s.WouldCreateCycle(txCtx, nodeID, *newParentID)
			if err != nil {
				return err
			}
			if cycle {
				return organization.ErrCycleDetected
			}
			if _, err := s.repo.GetByID(txCtx, *newParentID); err != nil {
				return err
			}
		}

		sortOrder, err := s.repo.NextSiblingSortOrder(txCtx, newParentID)
		if err != nil {
			return err
		}

		oldParentID := node.ParentID()
		node.SetParent(newParentID, sortOrder)
		if err := s.repo.Update(txCtx, node); err != nil {
			return err
		}
		s.publisher.Publish(organization.NewReparentedEvent(nodeID, oldParentID, newParentID))
		return nil
	})
}

// Reorder renumbers the children of parentID to match orderedIDs, as one
// batch inside one transaction so duplicate positions never appear.
func (s *OrgService) Reorder(ctx context.Context, parentID *uuid.UUID, orderedIDs []uuid.UUID) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateSortOrders(txCtx, orderedIDs); err != nil {
			return err
		}
		s.publisher.Publish(organization.NewReorderedEvent(parentID, orderedIDs))
		return nil
	})
}

// Deactivate soft-deletes a node, optionally cascading to its whole
// descendant subtree in the same transaction. Nodes are never physically
// removed.
func (s *OrgService) Deactivate(ctx context.Context, nodeID uuid.UUID, cascade bool) error {
	return composables.InTx(ctx, func(txCtx context.Context) error {
		ids := []uuid.UUID{nodeID}
		if cascade {
			descendants, err := s.descendants(txCtx, nodeID, false)
			if err != nil {
				return err
			}
			ids = append(ids, descendants...)
		}
		if err := s.repo.DeactivateMany(txCtx, ids); err != nil {
			return err
		}
		s.publisher.Publish(organization.NewDeactivatedEvent(ids, cascade))
		return nil
	})
}
