package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/enroll/pkg/adapters/memory"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
	"github.com/aretw0/enroll/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestManager_UpdateIsSerialized(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, manager.Create(ctx, domain.NewWorkflowState("wf-1", "c-1", "p-1", epoch)))

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, "wf-1", func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				s.Acknowledged = append(s.Acknowledged, "x")
				atomic.AddInt32(&inFlight, -1)
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight)
	state, err := manager.Load(ctx, "wf-1")
	require.NoError(t, err)
	assert.Len(t, state.Acknowledged, 10, "no read-modify-write update may be lost")
}

func TestManager_IndependentWorkflowsRunConcurrently(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, manager.Create(ctx, domain.NewWorkflowState("a", "c", "p", epoch)))
	require.NoError(t, manager.Create(ctx, domain.NewWorkflowState("b", "c", "p", epoch)))

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_, _ = manager.Update(ctx, "a", func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		_, _ = manager.Load(ctx, "b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workflow b was blocked by workflow a")
	}
	close(release)
}

func TestManager_CreateRejectsDuplicate(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, manager.Create(ctx, domain.NewWorkflowState("wf", "c", "p", epoch)))
	err := manager.Create(ctx, domain.NewWorkflowState("wf", "c", "p", epoch))
	assert.ErrorIs(t, err, domain.ErrWorkflow)
}

func TestManager_UpdateKeepsStateOnError(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, manager.Create(ctx, domain.NewWorkflowState("wf", "c", "p", epoch)))

	boom := errors.New("boom")
	_, err := manager.Update(ctx, "wf", func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
		s.Current = domain.StatusFailed
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, "wf")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInitiated, state.Current)

	_, err = manager.Update(ctx, "missing", func(ctx context.Context, s *domain.WorkflowState) (*domain.WorkflowState, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManager_WithLockHonoursContext(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	hold := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = manager.WithLock(context.Background(), "wf", func(ctx context.Context) error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := manager.WithLock(ctx, "wf", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(hold)
	require.Eventually(t, func() bool {
		return manager.WithLock(context.Background(), "wf", func(ctx context.Context) error { return nil }) == nil
	}, time.Second, 5*time.Millisecond)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
	fail     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.locked = append(l.locked, key)
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked = append(l.unlocked, key)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Create(ctx, domain.NewWorkflowState("wf-1", "c-1", "p-1", epoch)))
	_, err := manager.Load(ctx, "wf-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"wf-1", "wf-1"}, locker.locked)
	assert.Equal(t, locker.locked, locker.unlocked)

	locker.fail = errors.New("redis down")
	_, err = manager.Load(ctx, "wf-1")
	assert.ErrorContains(t, err, "redis down")
}
