package events

import "time"

// DomainEvent is a fact emitted by an aggregate and published through the
// outbox after the owning transaction commits.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}
