package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/enroll/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, state *domain.WorkflowState) error { return nil }
func (nopStore) Load(ctx context.Context, workflowID string) (*domain.WorkflowState, error) {
	return nil, &domain.NotFoundError{Kind: "workflow", ID: workflowID}
}
func (nopStore) Delete(ctx context.Context, workflowID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)          { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("workflow-%d", i)
		_ = mgr.Save(ctx, &domain.WorkflowState{WorkflowID: id})
		_ = mgr.Delete(ctx, id)
	}

	mgr.mu.Lock()
	lockCount := len(mgr.locks)
	mgr.mu.Unlock()

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
