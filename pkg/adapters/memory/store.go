package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/enroll/pkg/domain"
)

// Store implements ports.WorkflowStore in memory.
// Safe for concurrent use. Workflows do not survive a restart.
type Store struct {
	data map[string]*domain.WorkflowState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.WorkflowState),
	}
}

// Save stores a deep copy of the state.
func (s *Store) Save(ctx context.Context, state *domain.WorkflowState) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[state.WorkflowID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored snapshot by pointer.
func (s *Store) Load(ctx context.Context, workflowID string) (*domain.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[workflowID]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "workflow", ID: workflowID}
	}
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, workflowID)
	return nil
}

// List returns stored workflow IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
