// internal/scheduler/lock.go
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when this holder still owns it.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// SweepLock is a redis lease that keeps multiple notifier instances from
// sweeping at the same time. The TTL bounds the lease when a holder dies
// without releasing.
type SweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	holder string
}

func NewSweepLock(client *redis.Client, key string, ttl time.Duration) *SweepLock {
	return &SweepLock{
		client: client,
		key:    key,
		ttl:    ttl,
		holder: uuid.New().String(),
	}
}

// Acquire attempts to take the lease. It returns false without error when
// another instance holds it.
func (l *SweepLock) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.holder, l.ttl).Result()
}

// Release frees the lease if this instance still holds it. An expired or
// stolen lease is not an error.
func (l *SweepLock) Release(ctx context.Context) error {
	return l.client.Eval(ctx, releaseScript, []string{l.key}, l.holder).Err()
}
