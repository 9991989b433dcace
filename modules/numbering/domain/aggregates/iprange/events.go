package iprange

import "time"

type RangeCreatedEvent struct {
	Result    *Range
	Timestamp time.Time
}

func NewRangeCreatedEvent(result *Range) *RangeCreatedEvent {
	return &RangeCreatedEvent{Result: result, Timestamp: time.Now()}
}

type IssuedEvent struct {
	Result    *Assignment
	Timestamp time.Time
}

func NewIssuedEvent(result *Assignment) *IssuedEvent {
	return &IssuedEvent{Result: result, Timestamp: time.Now()}
}

type AssignedEvent struct {
	Result    *Assignment
	Timestamp time.Time
}

func NewAssignedEvent(result *Assignment) *AssignedEvent {
	return &AssignedEvent{Result: result, Timestamp: time.Now()}
}

type ReleasedEvent struct {
	Result    *Assignment
	Timestamp time.Time
}

func NewReleasedEvent(result *Assignment) *ReleasedEvent {
	return &ReleasedEvent{Result: result, Timestamp: time.Now()}
}

type RetiredEvent struct {
	Result    *Assignment
	Timestamp time.Time
}

func NewRetiredEvent(result *Assignment) *RetiredEvent {
	return &RetiredEvent{Result: result, Timestamp: time.Now()}
}
