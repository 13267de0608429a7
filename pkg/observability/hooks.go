package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/enroll/pkg/domain"
)

// LogHooks logs transitions at Info and provider calls at Debug (Warn on failure).
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "workflow transition",
				"workflow_id", e.WorkflowID,
				"from", e.From,
				"to", e.To,
				"reason", e.Reason,
			)
		},
		OnProviderCall: func(ctx context.Context, e *domain.ProviderCallEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "provider call failed",
					"workflow_id", e.WorkflowID,
					"provider", e.ProviderID,
					"op", e.Op,
					"attempt", e.Attempt,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "provider call",
				"workflow_id", e.WorkflowID,
				"provider", e.ProviderID,
				"op", e.Op,
				"attempt", e.Attempt,
				"duration", e.Duration,
			)
		},
		OnEligibility: func(ctx context.Context, e *domain.EligibilityEvent) {
			logger.DebugContext(ctx, "eligibility evaluated",
				"workflow_id", e.WorkflowID,
				"product_id", e.ProductID,
				"eligible", e.Eligible,
			)
		},
	}
}

// Combine calls each hook set in order. Nil callbacks are skipped.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var transitions []func(context.Context, *domain.TransitionEvent)
	var calls []func(context.Context, *domain.ProviderCallEvent)
	var checks []func(context.Context, *domain.EligibilityEvent)
	for _, s := range sets {
		if s.OnTransition != nil {
			transitions = append(transitions, s.OnTransition)
		}
		if s.OnProviderCall != nil {
			calls = append(calls, s.OnProviderCall)
		}
		if s.OnEligibility != nil {
			checks = append(checks, s.OnEligibility)
		}
	}

	if len(transitions) > 0 {
		out.OnTransition = func(ctx context.Context, e *domain.TransitionEvent) {
			for _, fn := range transitions {
				fn(ctx, e)
			}
		}
	}
	if len(calls) > 0 {
		out.OnProviderCall = func(ctx context.Context, e *domain.ProviderCallEvent) {
			for _, fn := range calls {
				fn(ctx, e)
			}
		}
	}
	if len(checks) > 0 {
		out.OnEligibility = func(ctx context.Context, e *domain.EligibilityEvent) {
			for _, fn := range checks {
				fn(ctx, e)
			}
		}
	}
	return out
}
