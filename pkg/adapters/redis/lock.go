// Package redis provides a Redis-backed ports.DistributedLocker.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/enroll/pkg/ports"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPollInterval is how often a contended lock is retried.
const DefaultPollInterval = 50 * time.Millisecond

// ErrLockAcquire wraps Redis failures while taking a lock.
var ErrLockAcquire = errors.New("failed to acquire distributed lock")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Locker implements ports.DistributedLocker with SET NX PX.
type Locker struct {
	client backend.Cmdable
	prefix string
	poll   time.Duration
}

// Option configures the Locker.
type Option func(*Locker)

// WithPollInterval sets the pause between attempts on a contended key.
func WithPollInterval(d time.Duration) Option {
	return func(l *Locker) {
		l.poll = d
	}
}

// NewLocker creates a locker whose keys are "<prefix>lock:<workflow id>".
func NewLocker(client backend.Cmdable, prefix string, opts ...Option) *Locker {
	l := &Locker{client: client, prefix: prefix, poll: DefaultPollInterval}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// errContended marks a held lock; it is retried until ctx is done.
var errContended = errors.New("lock is held")

// Lock polls until the key is free, then claims it with a random token.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	claim := func() error {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrLockAcquire, err))
		}
		if !ok {
			return errContended
		}
		return nil
	}

	if err := backoff.Retry(claim, backoff.WithContext(backoff.NewConstantBackOff(l.poll), ctx)); err != nil {
		if errors.Is(err, errContended) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err()
	}, nil
}
