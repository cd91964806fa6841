package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRequestLock(ctx context.Context, requestID string, ttl time.Duration) (string, bool, error)
	ReleaseRequestLock(ctx context.Context, requestID, token string) error
}

// Ensure concrete types implement interfaces.
var _ LockStoreInterface = (*LockStore)(nil)
