package employee

import "github.com/google/uuid"

type HiredEvent struct {
	Result Employee
}

func NewHiredEvent(result *Employee) *HiredEvent {
	return &HiredEvent{Result: *result}
}

type TransferredEvent struct {
	EmployeeID uuid.UUID
	FromOrgID  uuid.UUID
	ToOrgID    uuid.UUID
}

func NewTransferredEvent(employeeID, fromOrgID, toOrgID uuid.UUID) *TransferredEvent {
	return &TransferredEvent{EmployeeID: employeeID, FromOrgID: fromOrgID, ToOrgID: toOrgID}
}

type OffboardedEvent struct {
	Result Employee
}

func NewOffboardedEvent(result *Employee) *OffboardedEvent {
	return &OffboardedEvent{Result: *result}
}
