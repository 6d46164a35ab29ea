package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const dispatchLockPrefix = "lock:dispatch:"

// releaseIfOwner deletes the lock only when this instance still holds it, so
// an expired claim re-taken by another node is left alone.
var releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore guards ride dispatch across server instances. Each store carries
// its own owner token, written as the lock value.
type LockStore struct {
	client *redis.Client
	owner  string
}

func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client, owner: uuid.NewString()}
}

// AcquireDispatchLock claims the right to fan a ride out to drivers.
// Returns false if another instance already holds it.
func (s *LockStore) AcquireDispatchLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, dispatchLockPrefix+rideID, s.owner, ttl).Result()
}

// ReleaseDispatchLock gives the claim back so the ride can be dispatched again.
// Releasing a lock held by someone else is a no-op.
func (s *LockStore) ReleaseDispatchLock(ctx context.Context, rideID string) error {
	return releaseIfOwner.Run(ctx, s.client, []string{dispatchLockPrefix + rideID}, s.owner).Err()
}
