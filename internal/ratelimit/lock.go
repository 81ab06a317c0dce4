package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "inkpost:lock:"

// ErrLockHeld is returned by Acquire when another request holds the lease.
var ErrLockHeld = errors.New("lock_held")

// Only the holder's token may delete the key; a lease that expired and was
// taken over stays with its new holder.
const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Unlock gives a lease back. Calls after the first are no-ops.
type Unlock func(ctx context.Context) error

// Locker hands out short exclusive leases on redis keys under inkpost:lock:.
type Locker struct {
	client  *redis.Client
	release *redis.Script
}

// NewLocker returns nil without a redis client; callers skip locking then.
func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client:  client,
		release: redis.NewScript(lockReleaseScript),
	}
}

// Acquire takes the lease called name for ttl.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (Unlock, error) {
	if l == nil || l.client == nil {
		return nil, errors.New("lock client not configured")
	}
	if name == "" {
		return nil, errors.New("lock name is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}

	key := lockKeyPrefix + name
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			err = l.release.Run(ctx, l.client, []string{key}, token).Err()
		})
		return err
	}, nil
}
