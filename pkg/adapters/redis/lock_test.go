package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/enroll/pkg/adapters/redis"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T) (*miniredis.Miniredis, *redis.Locker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redis.NewLocker(client, "enroll:", redis.WithPollInterval(10*time.Millisecond))
}

func TestLocker_LockUnlock(t *testing.T) {
	mr, locker := newLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "wf-1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("enroll:lock:wf-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("enroll:lock:wf-1"))
}

func TestLocker_Contention(t *testing.T) {
	_, locker := newLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "wf-1", 5*time.Second)
	require.NoError(t, err)

	waiting, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waiting, "wf-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := locker.Lock(ctx, "wf-2", 5*time.Second)
	require.NoError(t, err, "independent workflows do not contend")
	require.NoError(t, other(ctx))

	require.NoError(t, unlock(ctx))
	again, err := locker.Lock(ctx, "wf-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocker_UnlockKeepsForeignLock(t *testing.T) {
	mr, locker := newLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "wf-1", time.Second)
	require.NoError(t, err)

	// The first holder's lease runs out and someone else takes the key.
	mr.FastForward(2 * time.Second)
	second, err := locker.Lock(ctx, "wf-1", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("enroll:lock:wf-1"), "a stale unlock must not free the new holder")

	require.NoError(t, second(ctx))
	assert.False(t, mr.Exists("enroll:lock:wf-1"))
}
