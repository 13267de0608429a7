package runtime

import (
	"context"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
	"github.com/cenkalti/backoff/v4"
)

// Invoker returns the provider call guard used on behalf of workflowID (which may be empty).
//
// Calls run on a context detached from the caller's cancellation so a provider is never
// interrupted mid-request. Retryable failures get exactly one more attempt after the
// retry delay. If the caller's context is done once the call returns, the result is
// dropped and the call reported as failed.
func (e *Engine) Invoker(workflowID string) ports.Invoker {
	return func(ctx context.Context, providerID, op string, call func(context.Context) error) error {
		detached := context.WithoutCancel(ctx)

		attempt := 0
		operation := func() error {
			attempt++
			start := time.Now()
			err := call(detached)
			e.emitProviderCall(ctx, workflowID, providerID, op, attempt, time.Since(start), err)

			if err == nil {
				return nil
			}
			if !domain.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			e.logger.Warn("provider call failed",
				"workflow_id", workflowID,
				"provider", providerID,
				"op", op,
				"attempt", attempt,
				"err", err,
			)
			return err
		}

		policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(e.retryDelay), e.maxRetries)
		err := backoff.Retry(operation, backoff.WithContext(policy, ctx))

		if ctxErr := ctx.Err(); ctxErr != nil {
			return &domain.ProviderError{
				ProviderID: providerID,
				Op:         op,
				Message:    "caller deadline elapsed, result dropped",
				Cause:      ctxErr,
			}
		}
		return err
	}
}
