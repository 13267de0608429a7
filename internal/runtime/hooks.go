package runtime

import (
	"context"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
)

func (e *Engine) emitTransition(ctx context.Context, workflowID string, t domain.Transition) {
	if e.hooks.OnTransition == nil {
		return
	}
	e.hooks.OnTransition(ctx, &domain.TransitionEvent{
		EventBase: domain.EventBase{Timestamp: t.At, Type: domain.EventTransition, WorkflowID: workflowID},
		From:      t.From,
		To:        t.To,
		Reason:    t.Reason,
	})
}

func (e *Engine) emitProviderCall(ctx context.Context, workflowID, providerID, op string, attempt int, took time.Duration, err error) {
	if e.hooks.OnProviderCall == nil {
		return
	}
	e.hooks.OnProviderCall(ctx, &domain.ProviderCallEvent{
		EventBase:  domain.EventBase{Timestamp: e.now(), Type: domain.EventProviderCall, WorkflowID: workflowID},
		ProviderID: providerID,
		Op:         op,
		Attempt:    attempt,
		Duration:   took,
		Err:        err,
	})
}

func (e *Engine) emitEligibility(ctx context.Context, workflowID, productID string, eligible bool) {
	if e.hooks.OnEligibility == nil {
		return
	}
	e.hooks.OnEligibility(ctx, &domain.EligibilityEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventEligibility, WorkflowID: workflowID},
		ProductID: productID,
		Eligible:  eligible,
	})
}
