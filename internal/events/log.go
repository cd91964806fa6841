package events

import (
	"context"
	"log/slog"
)

// LogPublisher records events in the service log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "lifecycle event",
		"type", event.Type,
		"entity_id", event.EntityID,
		"actor_id", event.ActorID,
		"occurred_at", event.OccurredAt,
		"attributes", event.Attributes,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

var _ Publisher = (*LogPublisher)(nil)
