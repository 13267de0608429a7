package enroll

import (
	"context"

	"github.com/aretw0/enroll/pkg/domain"
)

// StartWorkflow creates and stores a workflow positioned at initiated.
// An empty workflowID gets a generated one.
func (e *Engine) StartWorkflow(ctx context.Context, workflowID string, consumer domain.Consumer, productID string) (*domain.WorkflowState, error) {
	state, err := e.runtime.Start(workflowID, consumer, productID)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.Create(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// AdvanceWorkflow executes one step under the workflow lock and stores the result.
// A failed step is not an error: the stored state is failed and carries the cause.
func (e *Engine) AdvanceWorkflow(ctx context.Context, workflowID string, consumer domain.Consumer, input domain.WorkflowInput) (*domain.WorkflowState, error) {
	return e.sessions.Update(ctx, workflowID, func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
		return e.runtime.Advance(ctx, state, consumer, input)
	})
}

// RunWorkflow advances until completed or failed. The lock is taken per step.
func (e *Engine) RunWorkflow(ctx context.Context, workflowID string, consumer domain.Consumer, input domain.WorkflowInput) (*domain.WorkflowState, error) {
	state, err := e.sessions.Load(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	for !state.Current.Terminal() {
		state, err = e.AdvanceWorkflow(ctx, workflowID, consumer, input)
		if err != nil {
			return nil, err
		}
	}
	return state, nil
}

// ResumeWorkflow re-enters a failed workflow, at its failed step or from the start.
func (e *Engine) ResumeWorkflow(ctx context.Context, workflowID string, restart bool) (*domain.WorkflowState, error) {
	return e.sessions.Update(ctx, workflowID, func(ctx context.Context, state *domain.WorkflowState) (*domain.WorkflowState, error) {
		return e.runtime.Resume(ctx, state, restart)
	})
}

// GetWorkflow returns the stored workflow.
func (e *Engine) GetWorkflow(ctx context.Context, workflowID string) (*domain.WorkflowState, error) {
	return e.sessions.Load(ctx, workflowID)
}

// ListWorkflows returns the ids of every stored workflow.
func (e *Engine) ListWorkflows(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// DeleteWorkflow forgets a workflow.
func (e *Engine) DeleteWorkflow(ctx context.Context, workflowID string) error {
	return e.sessions.Delete(ctx, workflowID)
}
