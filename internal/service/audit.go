package service

import (
	"context"
	"log/slog"
	"time"

	"commute/internal/events"
)

// auditor publishes lifecycle events after a transition commits. Publishing
// never fails the transition.
type auditor struct {
	publisher events.Publisher
	logger    *slog.Logger
}

func newAuditor(publisher events.Publisher, logger *slog.Logger) auditor {
	return auditor{publisher: publisher, logger: logger}
}

func (a auditor) record(ctx context.Context, typ events.Type, entityID, actorID string, attrs map[string]any) {
	if a.publisher == nil {
		return
	}

	err := a.publisher.Publish(ctx, events.Event{
		Type:       typ,
		EntityID:   entityID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
		Attributes: attrs,
	})
	if err != nil {
		a.logger.WarnContext(ctx, "failed to publish lifecycle event",
			"type", typ,
			"entity_id", entityID,
			"error", err,
		)
	}
}
