package allocation

import "time"

type IssuedEvent struct {
	Result    *Record
	Timestamp time.Time
}

func NewIssuedEvent(result *Record) *IssuedEvent {
	return &IssuedEvent{Result: result, Timestamp: time.Now()}
}

type AssignedEvent struct {
	Result    *Record
	Timestamp time.Time
}

func NewAssignedEvent(result *Record) *AssignedEvent {
	return &AssignedEvent{Result: result, Timestamp: time.Now()}
}

type ReleasedEvent struct {
	Result    *Record
	Timestamp time.Time
}

func NewReleasedEvent(result *Record) *ReleasedEvent {
	return &ReleasedEvent{Result: result, Timestamp: time.Now()}
}

type RetiredEvent struct {
	Result    *Record
	Timestamp time.Time
}

func NewRetiredEvent(result *Record) *RetiredEvent {
	return &RetiredEvent{Result: result, Timestamp: time.Now()}
}
