package organization

import (
	"time"

	"github.com/google/uuid"
)

type CreatedEvent struct {
	Result    *Organization
	Timestamp time.Time
}

func NewCreatedEvent(result *Organization) *CreatedEvent {
	return &CreatedEvent{Result: result, Timestamp: time.Now()}
}

type ReparentedEvent struct {
	NodeID      uuid.UUID
	OldParentID *uuid.UUID
	NewParentID *uuid.UUID
	Timestamp   time.Time
}

func NewReparentedEvent(nodeID uuid.UUID, oldParentID, newParentID *uuid.UUID) *ReparentedEvent {
	return &ReparentedEvent{
		NodeID:      nodeID,
		OldParentID: oldParentID,
		NewParentID: newParentID,
		Timestamp:   time.Now(),
	}
}

type ReorderedEvent struct {
	ParentID  *uuid.UUID
	OrderedID []uuid.UUID
	Timestamp time.Time
}

func NewReorderedEvent(parentID *uuid.UUID, orderedIDs []uuid.UUID) *ReorderedEvent {
	return &ReorderedEvent{ParentID: parentID, OrderedID: orderedIDs, Timestamp: time.Now()}
}

type DeactivatedEvent struct {
	NodeIDs   []uuid.UUID
	Cascade   bool
	Timestamp time.Time
}

func NewDeactivatedEvent(nodeIDs []uuid.UUID, cascade bool) *DeactivatedEvent {
	return &DeactivatedEvent{NodeIDs: nodeIDs, Cascade: cascade, Timestamp: time.Now()}
}
