package persistence

import (
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/category"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/iprange"
	"github.com/kadrohq/kadro/modules/numbering/infrastructure/persistence/models"
	"github.com/kadrohq/kadro/pkg/mapping"
)

func toDomainCategory(m *models.AllocationCategory) *category.Category {
	return category.Hydrate(
		m.ID,
		m.TenantID,
		category.Kind(m.Kind),
		m.Code,
		m.Name,
		m.Sequence,
		m.IsActive,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toDomainRecord(m *models.AllocationRecord) *allocation.Record {
	target := allocation.Unassigned()
	if m.TargetKind.Valid && m.TargetID.Valid {
		if t, err := allocation.NewTarget(m.TargetKind.String, m.TargetID.String); err == nil {
			target = t
		}
	}
	lifecycle := allocation.HydrateLifecycle(
		allocation.Status(m.Status),
		target,
		mapping.SQLNullTimeToPointer(m.AssignedAt),
		mapping.SQLNullTimeToPointer(m.RetiredAt),
		mapping.SQLNullStringToPointer(m.RetiredReason),
	)
	return allocation.Hydrate(
		m.ID,
		m.TenantID,
		m.CategoryID,
		m.FullIdentifier,
		m.Sequence,
		lifecycle,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func toDomainRange(m *models.AddressRange) (*iprange.Range, error) {
	opts := []iprange.Option{
		iprange.WithID(m.ID),
		iprange.WithCreatedAt(m.CreatedAt),
		iprange.WithUpdatedAt(m.UpdatedAt),
	}
	if m.Subnet.Valid {
		opts = append(opts, iprange.WithSubnet(m.Subnet.String))
	}
	if m.Gateway.Valid {
		opts = append(opts, iprange.WithGateway(m.Gateway.String))
	}
	return iprange.New(m.TenantID, m.StartAddress, m.EndAddress, m.Label, opts...)
}

func toDomainAssignment(m *models.AddressAssignment) *iprange.Assignment {
	target := allocation.Unassigned()
	if m.TargetKind.Valid && m.TargetID.Valid {
		if t, err := allocation.NewTarget(m.TargetKind.String, m.TargetID.String); err == nil {
			target = t
		}
	}
	lifecycle := allocation.HydrateLifecycle(
		allocation.Status(m.Status),
		target,
		mapping.SQLNullTimeToPointer(m.AssignedAt),
		mapping.SQLNullTimeToPointer(m.RetiredAt),
		mapping.SQLNullStringToPointer(m.RetiredReason),
	)
	return iprange.HydrateAssignment(
		m.ID,
		m.TenantID,
		m.RangeID,
		m.Address,
		lifecycle,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
