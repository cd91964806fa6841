// Package events publishes committed lifecycle transitions as an audit stream.
package events

import (
	"context"
	"time"
)

// Type names a lifecycle event.
type Type string

const (
	RequestCreated   Type = "request.created"
	RequestCancelled Type = "request.cancelled"
	ContractProposed Type = "contract.proposed"
	ContractAccepted Type = "contract.accepted"
	ContractRejected Type = "contract.rejected"
	TripCreated      Type = "trip.created"
	TripStarted      Type = "trip.started"
	TripCompleted    Type = "trip.completed"
)

// Event is a single committed transition.
type Event struct {
	Type       Type           `json:"type"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
