package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TickLock is a best-effort distributed lock used to keep overlapping
// processor invocations from polling the queue at the same time. Row-level
// safety still rests on the store's conditional claim; the lock only avoids
// wasted work when two scheduler ticks overlap.
type TickLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// NewTickLock creates a lock on the given key with the given TTL.
// The TTL should exceed the longest expected tick duration so a crashed
// holder cannot block processing forever.
func NewTickLock(client *redis.Client, key string, ttl time.Duration) *TickLock {
	return &TickLock{
		client: client,
		key:    key,
		ttl:    ttl,
		token:  uuid.NewString(),
	}
}

// TryAcquire attempts to take the lock without blocking.
// It returns false when another holder owns the lock.
func (l *TickLock) TryAcquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// releaseScript deletes the key only when it still holds this lock's token,
// so an expired lock reacquired by another instance is never released here.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Release frees the lock if this instance still owns it.
func (l *TickLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
