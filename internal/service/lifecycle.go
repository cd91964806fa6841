package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"commute/internal/domain"
	"commute/internal/metrics"
	"commute/internal/redis"
	"commute/internal/repository"
)

const requestLockTTL = 10 * time.Second

// statusReader loads the status currently stored for an entity.
type statusReader func(ctx context.Context) (string, error)

// resolveConflict turns a lost conditional write into a TransitionError
// naming the status now stored. Other write errors are internal.
func resolveConflict(ctx context.Context, entity string, err error, current statusReader) error {
	if !errors.Is(err, repository.ErrStatusConflict) {
		return internal("update "+entity, err)
	}

	metrics.TransitionConflicts.WithLabelValues(entity).Inc()

	status, readErr := current(ctx)
	if readErr != nil {
		return lookupErr(entity, readErr)
	}

	return &TransitionError{Entity: entity, Current: status}
}

func requireRole(actor domain.Actor, role domain.Role) error {
	if !actor.Is(role) {
		return forbidden("requires role " + string(role))
	}
	return nil
}

func recordTransition(entity, to string) {
	metrics.Transitions.WithLabelValues(entity, to).Inc()
}

// withRequestLock runs fn while holding the request's distributed lock. A lock
// held elsewhere yields ErrRequestBusy. A nil store runs fn unguarded.
func withRequestLock(ctx context.Context, locks redis.LockStoreInterface, logger *slog.Logger, requestID string, fn func() error) error {
	if locks == nil {
		return fn()
	}

	token, locked, err := locks.AcquireRequestLock(ctx, requestID, requestLockTTL)
	if err != nil {
		return internal("lock request", err)
	}
	if !locked {
		metrics.TransitionConflicts.WithLabelValues("request_lock").Inc()
		return ErrRequestBusy
	}
	defer func() {
		if err := locks.ReleaseRequestLock(ctx, requestID, token); err != nil {
			logger.WarnContext(ctx, "failed to release request lock", "request_id", requestID, "error", err)
		}
	}()

	return fn()
}
