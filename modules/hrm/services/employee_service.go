package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kadrohq/kadro/modules/hrm/domain/aggregates/employee"
	"github.com/kadrohq/kadro/modules/numbering/domain/aggregates/allocation"
	numbering "github.com/kadrohq/kadro/modules/numbering/services"
	"github.com/kadrohq/kadro/pkg/composables"
	"github.com/kadrohq/kadro/pkg/eventbus"
	"github.com/kadrohq/kadro/pkg/serrors"
)

var ErrOrgOutsideTenant = serrors.NewError("ORG_OUTSIDE_TENANT", "organization node is outside the tenant's scope", "HRM.Errors.OrgOutsideTenant")

// ScopeGuard is the slice of the org module's tenant gate hrm depends on.
type ScopeGuard interface {
	VerifyOwnership(ctx context.Context, nodeID, tenantRootID uuid.UUID) (bool, error)
	DescendantsOf(ctx context.Context, rootID uuid.UUID) ([]uuid.UUID, error)
}

// NumberLedger is the slice of the allocation engine hrm consumes: every hire
// draws an employee number from it, every offboarding retires one.
type NumberLedger interface {
	Issue(ctx context.Context, categoryID uuid.UUID) (*allocation.Record, error)
	Assign(ctx context.Context, recordID uuid.UUID, data *numbering.AssignTargetDTO) (*allocation.Record, error)
	Retire(ctx context.Context, recordID uuid.UUID, reason string) (*allocation.Record, error)
}

type EmployeeService struct {
	employees employee.Repository
	gate      ScopeGuard
	ledger    NumberLedger
	publisher eventbus.EventBus
	log       *logrus.Logger
}

func NewEmployeeService(
	employees employee.Repository,
	gate ScopeGuard,
	ledger NumberLedger,
	publisher eventbus.EventBus,
	log *logrus.Logger,
) *EmployeeService {
	return &EmployeeService{
		employees: employees,
		gate:      gate,
		ledger:    ledger,
		publisher: publisher,
		log:       log,
	}
}

// Hire creates an employee under an organization node the tenant owns and
// binds a freshly issued employee number to it. The number is issued before
// the employee row exists, so a failure after issuing retires the number
// instead of leaving it dangling in the available state.
func (s *EmployeeService) Hire(ctx context.Context, data *HireEmployeeDTO) (*employee.Employee, error) {
	if err := validate.Struct(data); err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	owned, err := s.gate.VerifyOwnership(ctx, data.OrgID, tenantID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrOrgOutsideTenant
	}

	rec, err := s.ledger.Issue(ctx, data.CategoryID)
	if err != nil {
		return nil, err
	}

	created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		e := employee.New(
			tenantID,
			data.OrgID,
			data.FirstName,
			data.LastName,
			rec.FullIdentifier(),
			rec.ID(),
			employee.WithEmail(data.Email),
		)
		return s.employees.Create(txCtx, e)
	})
	if err != nil {
		s.retireOrphan(ctx, rec.ID())
		return nil, err
	}

	if _, err := s.ledger.Assign(ctx, rec.ID(), &numbering.AssignTargetDTO{
		TargetKind: employee.TargetKind,
		TargetID:   created.ID().String(),
	}); err != nil {
		return nil, err
	}

	s.publisher.Publish(employee.NewHiredEvent(created))
	return created, nil
}

func (s *EmployeeService) retireOrphan(ctx context.Context, recordID uuid.UUID) {
	if _, err := s.ledger.Retire(ctx, recordID, "hire aborted"); err != nil {
		s.log.WithError(err).WithField("record_id", recordID).Error("failed to retire orphaned employee number")
	}
}

func (s *EmployeeService) GetByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		return s.employees.GetByID(txCtx, id)
	})
}

func (s *EmployeeService) GetByNumber(ctx context.Context, employeeNumber string) (*employee.Employee, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		return s.employees.GetByNumber(txCtx, employeeNumber)
	})
}

// List returns every employee inside the tenant's scope. An empty scope (gate
// failing closed) yields an empty list, never an unscoped one.
func (s *EmployeeService) List(ctx context.Context) ([]*employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	orgIDs, err := s.gate.DescendantsOf(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*employee.Employee, error) {
		return s.employees.FindByOrgIDs(txCtx, orgIDs)
	})
}

// ListByOrgUnit narrows the listing to one subtree. The subtree root must be
// owned by the tenant before its descendants are expanded.
func (s *EmployeeService) ListByOrgUnit(ctx context.Context, orgID uuid.UUID) ([]*employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	owned, err := s.gate.VerifyOwnership(ctx, orgID, tenantID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrOrgOutsideTenant
	}
	orgIDs, err := s.gate.DescendantsOf(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]*employee.Employee, error) {
		return s.employees.FindByOrgIDs(txCtx, orgIDs)
	})
}

// Transfer moves an employee to another node inside the same tenant.
func (s *EmployeeService) Transfer(ctx context.Context, employeeID, newOrgID uuid.UUID) (*employee.Employee, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	owned, err := s.gate.VerifyOwnership(ctx, newOrgID, tenantID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, ErrOrgOutsideTenant
	}

	var fromOrgID uuid.UUID
	e, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		e, err := s.employees.GetByID(txCtx, employeeID)
		if err != nil {
			return nil, err
		}
		fromOrgID = e.OrgID()
		e.Transfer(newOrgID)
		if err := s.employees.Update(txCtx, e); err != nil {
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(employee.NewTransferredEvent(employeeID, fromOrgID, newOrgID))
	return e, nil
}

// Offboard deactivates the employee and retires the backing number, which is
// terminal: the identifier is never reissued to anyone else.
func (s *EmployeeService) Offboard(ctx context.Context, employeeID uuid.UUID, reason string) (*employee.Employee, error) {
	e, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (*employee.Employee, error) {
		e, err := s.employees.GetByID(txCtx, employeeID)
		if err != nil {
			return nil, err
		}
		if err := e.Offboard(); err != nil {
			return nil, err
		}
		if err := s.employees.Update(txCtx, e); err != nil {
			return nil, err
		}
		return e, nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.Retire(ctx, e.AllocationID(), reason); err != nil {
		s.log.WithError(err).WithField("employee_id", employeeID).Error("failed to retire employee number on offboarding")
	}

	s.publisher.Publish(employee.NewOffboardedEvent(e))
	return e, nil
}
