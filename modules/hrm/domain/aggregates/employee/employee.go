package employee

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kadrohq/kadro/pkg/serrors"
)

var (
	ErrNotFound          = serrors.NewError("EMPLOYEE_NOT_FOUND", "employee not found", "HRM.Errors.EmployeeNotFound")
	ErrAlreadyOffboarded = serrors.NewError("EMPLOYEE_ALREADY_OFFBOARDED", "employee is already offboarded", "HRM.Errors.EmployeeAlreadyOffboarded")
)

// TargetKind is the kind tag hrm stamps on allocation targets, so a ledger
// record can be traced back to the employee it serves.
const TargetKind = "employee"

type Option func(*Employee)

func WithID(id uuid.UUID) Option {
	return func(e *Employee) { e.id = id }
}

func WithEmail(email string) Option {
	return func(e *Employee) { e.email = strings.TrimSpace(email) }
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(e *Employee) { e.createdAt = createdAt }
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(e *Employee) { e.updatedAt = updatedAt }
}

// Employee is an hrm collaborator record. The employee number is not chosen
// here: it is issued by the allocation engine and carried verbatim, together
// with the id of the backing allocation record.
type Employee struct {
	id             uuid.UUID
	tenantID       uuid.UUID
	orgID          uuid.UUID
	firstName      string
	lastName       string
	email          string
	employeeNumber string
	allocationID   uuid.UUID
	isActive       bool
	createdAt      time.Time
	updatedAt      time.Time
}

func New(tenantID, orgID uuid.UUID, firstName, lastName, employeeNumber string, allocationID uuid.UUID, opts ...Option) *Employee {
	e := &Employee{
		id:             uuid.New(),
		tenantID:       tenantID,
		orgID:          orgID,
		firstName:      strings.TrimSpace(firstName),
		lastName:       strings.TrimSpace(lastName),
		employeeNumber: employeeNumber,
		allocationID:   allocationID,
		isActive:       true,
		createdAt:      time.Now(),
		updatedAt:      time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func Hydrate(
	id, tenantID, orgID uuid.UUID,
	firstName, lastName, email, employeeNumber string,
	allocationID uuid.UUID,
	isActive bool,
	createdAt, updatedAt time.Time,
) *Employee {
	return &Employee{
		id:             id,
		tenantID:       tenantID,
		orgID:          orgID,
		firstName:      firstName,
		lastName:       lastName,
		email:          email,
		employeeNumber: employeeNumber,
		allocationID:   allocationID,
		isActive:       isActive,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (e *Employee) ID() uuid.UUID           { return e.id }
func (e *Employee) TenantID() uuid.UUID     { return e.tenantID }
func (e *Employee) OrgID() uuid.UUID        { return e.orgID }
func (e *Employee) FirstName() string       { return e.firstName }
func (e *Employee) LastName() string        { return e.lastName }
func (e *Employee) Email() string           { return e.email }
func (e *Employee) EmployeeNumber() string  { return e.employeeNumber }
func (e *Employee) AllocationID() uuid.UUID { return e.allocationID }
func (e *Employee) IsActive() bool          { return e.isActive }
func (e *Employee) CreatedAt() time.Time    { return e.createdAt }
func (e *Employee) UpdatedAt() time.Time    { return e.updatedAt }

func (e *Employee) FullName() string {
	return strings.TrimSpace(e.firstName + " " + e.lastName)
}

// Transfer moves the employee to another organization node. Ownership of the
// destination node is the caller's problem; the aggregate only records it.
func (e *Employee) Transfer(orgID uuid.UUID) {
	e.orgID = orgID
	e.updatedAt = time.Now()
}

func (e *Employee) Offboard() error {
	if !e.isActive {
		return ErrAlreadyOffboarded
	}
	e.isActive = false
	e.updatedAt = time.Now()
	return nil
}
