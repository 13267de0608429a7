package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates workflow access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.WorkflowStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional, for replicas sharing a store
	lockTTL time.Duration

	logger *slog.Logger
}

// DefaultLockTTL bounds how long a crashed holder can block a workflow.
const DefaultLockTTL = 30 * time.Second

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithLocker enables distributed locking on top of the in-process locks.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// NewManager creates a new Manager over the given workflow store.
func NewManager(store ports.WorkflowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(workflowID) after unlocking.
func (m *Manager) acquire(workflowID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[workflowID]
	if !exists {
		entry = &lockEntry{}
		m.locks[workflowID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(workflowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[workflowID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, workflowID)
	}
}

// Load retrieves an existing workflow from the store.
func (m *Manager) Load(ctx context.Context, workflowID string) (*domain.WorkflowState, error) {
	var state *domain.WorkflowState
	err := m.WithLock(ctx, workflowID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, workflowID)
		return err
	})
	return state, err
}

// Create stores a new workflow. It fails with a WorkflowError if the ID is taken.
func (m *Manager) Create(ctx context.Context, state *domain.WorkflowState) error {
	return m.WithLock(ctx, state.WorkflowID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, state.WorkflowID)
		if err == nil {
			return &domain.WorkflowError{WorkflowID: state.WorkflowID, From: state.Current, Reason: "workflow already exists"}
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to check workflow existence: %w", err)
		}
		return m.store.Save(ctx, state)
	})
}

// Update loads a workflow, hands it to fn and saves what fn returns, all under the workflow lock.
// When fn fails the stored state is left as it was, unless fn also returned a state to keep.
func (m *Manager) Update(ctx context.Context, workflowID string, fn func(context.Context, *domain.WorkflowState) (*domain.WorkflowState, error)) (*domain.WorkflowState, error) {
	var result *domain.WorkflowState
	err := m.WithLock(ctx, workflowID, func(ctx context.Context) error {
		state, err := m.store.Load(ctx, workflowID)
		if err != nil {
			return err
		}

		next, fnErr := fn(ctx, state)
		if next != nil {
			if err := m.store.Save(ctx, next); err != nil {
				return fmt.Errorf("failed to save workflow: %w", err)
			}
			result = next
		}
		return fnErr
	})
	return result, err
}

// Save persists the workflow state.
func (m *Manager) Save(ctx context.Context, state *domain.WorkflowState) error {
	return m.WithLock(ctx, state.WorkflowID, func(ctx context.Context) error {
		return m.store.Save(ctx, state)
	})
}

// Delete removes the workflow from the store.
func (m *Manager) Delete(ctx context.Context, workflowID string) error {
	return m.WithLock(ctx, workflowID, func(ctx context.Context) error {
		return m.store.Delete(ctx, workflowID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying workflow store.
func (m *Manager) Store() ports.WorkflowStore {
	return m.store
}

// WithLock executes a function while holding the lock for the workflow.
// Waiting for the lock is abandoned when ctx is done.
func (m *Manager) WithLock(ctx context.Context, workflowID string, fn func(context.Context) error) error {
	entry := m.acquire(workflowID)

	locked := make(chan struct{})
	go func() {
		entry.mu.Lock()
		close(locked)
	}()

	select {
	case <-locked:
	case <-ctx.Done():
		// The entry must stay referenced until the pending Lock is handed back.
		go func() {
			<-locked
			entry.mu.Unlock()
			m.release(workflowID)
		}()
		m.logger.Debug("gave up waiting for workflow lock", "workflow_id", workflowID, "err", ctx.Err())
		return ctx.Err()
	}
	defer func() {
		entry.mu.Unlock()
		m.release(workflowID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, workflowID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock, it will expire",
					"workflow_id", workflowID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
