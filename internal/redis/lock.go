package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds the caller's token,
// so an expired holder cannot release a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireRequestLock attempts to lock a request for contract proposal.
// Returns the lock token and true if the lock was acquired, false if already held.
func (s *LockStore) AcquireRequestLock(ctx context.Context, requestID string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()

	ok, err := s.client.SetNX(ctx, requestLockKey(requestID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}

	return token, ok, nil
}

// ReleaseRequestLock releases the request lock if token still owns it.
func (s *LockStore) ReleaseRequestLock(ctx context.Context, requestID, token string) error {
	return releaseScript.Run(ctx, s.client, []string{requestLockKey(requestID)}, token).Err()
}

func requestLockKey(requestID string) string {
	return fmt.Sprintf("lock:request:%s", requestID)
}
