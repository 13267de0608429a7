package ports

import (
	"context"

	"github.com/aretw0/enroll/pkg/domain"
)

// WorkflowStore keeps workflow snapshots between steps.
type WorkflowStore interface {
	// Save persists the state for a given workflow ID.
	Save(ctx context.Context, state *domain.WorkflowState) error

	// Load retrieves the state for a given workflow ID.
	// Returns a *domain.NotFoundError if the workflow does not exist.
	Load(ctx context.Context, workflowID string) (*domain.WorkflowState, error)

	// Delete removes the state for a given workflow ID.
	Delete(ctx context.Context, workflowID string) error

	// List returns the IDs of every stored workflow.
	List(ctx context.Context) ([]string, error)
}
