package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/enroll/internal/logging"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
	"github.com/aretw0/enroll/pkg/quote"
	"github.com/google/uuid"
)

// DefaultRetryDelay is the fixed pause before the single retry of a retryable provider failure.
const DefaultRetryDelay = 500 * time.Millisecond

// Catalog is the read side of the product catalog the engine needs.
type Catalog interface {
	Get(id string) (*domain.Product, error)
	CrossSellFor(id string) ([]domain.Product, error)
}

// Engine is the workflow state machine runner.
type Engine struct {
	catalog    Catalog
	providers  ports.ProviderResolver
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
	retryDelay time.Duration
	maxRetries uint64
	resume     ResumePolicy
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock replaces time.Now for timestamps, quote dates and expiry checks.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator replaces the random workflow and quote ID generator.
func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		e.newID = newID
	}
}

// WithRetryDelay sets the pause before retrying a retryable provider failure.
func WithRetryDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.retryDelay = d
	}
}

// WithResumePolicy sets the default behaviour of Resume.
func WithResumePolicy(p ResumePolicy) EngineOption {
	return func(e *Engine) {
		e.resume = p
	}
}

// NewEngine creates an engine over a frozen catalog and provider registry.
func NewEngine(catalog Catalog, providers ports.ProviderResolver, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog:    catalog,
		providers:  providers,
		logger:     logging.NewNop(),
		now:        time.Now,
		newID:      uuid.NewString,
		retryDelay: DefaultRetryDelay,
		maxRetries: 1,
		resume:     ResumeFailedStep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculator returns a quote calculator whose provider calls are guarded for workflowID.
func (e *Engine) Calculator(workflowID string) *quote.Calculator {
	return quote.NewCalculator(e.providers,
		quote.WithInvoker(e.Invoker(workflowID)),
		quote.WithClock(e.now),
		quote.WithIDGenerator(e.newID),
	)
}

// Start creates a workflow positioned at initiated. An empty workflowID gets a generated one.
// Product and provider existence is verified by the first Advance.
func (e *Engine) Start(workflowID string, consumer domain.Consumer, productID string) (*domain.WorkflowState, error) {
	if consumer.ID == "" {
		return nil, &domain.ValidationError{Field: "consumer.id", Reason: "is required"}
	}
	if productID == "" {
		return nil, &domain.ValidationError{Field: "product_id", Reason: "is required"}
	}
	if workflowID == "" {
		workflowID = e.newID()
	}

	state := domain.NewWorkflowState(workflowID, consumer.ID, productID, e.now())
	e.logger.Debug("workflow started", "workflow_id", workflowID, "product_id", productID)
	return state, nil
}

// Advance executes the step the workflow is positioned at and returns the resulting state.
//
// A non-nil error means nothing happened and the input state is still current: the
// workflow is terminal, the consumer does not own it, or ctx was already done. A step
// that fails is not an error of Advance; the returned state is then failed and carries
// the cause in its error log.
func (e *Engine) Advance(ctx context.Context, state *domain.WorkflowState, consumer domain.Consumer, input domain.WorkflowInput) (*domain.WorkflowState, error) {
	if err := e.checkAdvance(ctx, state, consumer); err != nil {
		return nil, err
	}

	next := cloneState(state)
	step := next.Current

	var err error
	switch step {
	case domain.StatusInitiated:
		err = e.stepInitiate(ctx, next)
	case domain.StatusEligibilityCheck:
		err = e.stepEligibility(ctx, next, consumer)
	case domain.StatusQuoteGeneration:
		err = e.stepQuote(ctx, next, consumer, input.Quote)
	case domain.StatusCrossSell:
		err = e.stepCrossSell(ctx, next)
	case domain.StatusEnrollment:
		err = e.stepEnroll(ctx, next, consumer, input.Enrollment)
	default:
		return nil, &domain.WorkflowError{WorkflowID: state.WorkflowID, From: step, Reason: "unknown state"}
	}

	if err != nil {
		return e.fail(ctx, next, step, err), nil
	}

	to, _ := domain.NextStatus(step)
	if err := e.transition(ctx, next, to, string(step)+" succeeded"); err != nil {
		return nil, err
	}
	return next, nil
}

// Run advances the workflow until it reaches completed or failed.
func (e *Engine) Run(ctx context.Context, state *domain.WorkflowState, consumer domain.Consumer, input domain.WorkflowInput) (*domain.WorkflowState, error) {
	current := state
	for !current.Current.Terminal() {
		next, err := e.Advance(ctx, current, consumer, input)
		if err != nil {
			return current, err
		}
		current = next
	}
	return current, nil
}

// Resume re-enters a failed workflow. With restart, or under ResumeRestart, it goes back
// to initiated and discards every step result; otherwise it returns to the failed step.
func (e *Engine) Resume(ctx context.Context, state *domain.WorkflowState, restart bool) (*domain.WorkflowState, error) {
	if state.Current != domain.StatusFailed {
		return nil, &domain.WorkflowError{WorkflowID: state.WorkflowID, From: state.Current, Reason: "only failed workflows can be resumed"}
	}

	next := cloneState(state)
	target := next.FailedStep
	if restart || e.resume == ResumeRestart || target == "" {
		target = domain.StatusInitiated
		next.Quote = nil
		next.CrossSellCandidates = []string{}
		next.Enrollment = nil
		next.Acknowledged = nil
	}
	if !domain.CanResume(next.Current, target) {
		return nil, &domain.WorkflowError{WorkflowID: state.WorkflowID, From: next.Current, To: target, Reason: "cannot resume into this step"}
	}

	t := domain.Transition{From: next.Current, To: target, Reason: "resumed", At: e.now()}
	next.History = append(next.History, t)
	next.Current = target
	next.FailedStep = ""
	next.UpdatedAt = t.At
	e.emitTransition(ctx, next.WorkflowID, t)

	e.logger.Info("workflow resumed", "workflow_id", next.WorkflowID, "step", target)
	return next, nil
}

func (e *Engine) checkAdvance(ctx context.Context, state *domain.WorkflowState, consumer domain.Consumer) error {
	if state == nil {
		return &domain.ValidationError{Field: "workflow", Reason: "is required"}
	}
	if state.Current.Terminal() {
		return &domain.WorkflowError{WorkflowID: state.WorkflowID, From: state.Current, Reason: "workflow is terminal"}
	}
	if consumer.ID != state.ConsumerID {
		return &domain.ValidationError{Field: "consumer.id", Reason: fmt.Sprintf("does not own workflow %q", state.WorkflowID), Value: consumer.ID}
	}
	return ctx.Err()
}

// transition validates and records a move, appending it to the history.
func (e *Engine) transition(ctx context.Context, state *domain.WorkflowState, to domain.WorkflowStatus, reason string) error {
	if !domain.CanTransition(state.Current, to) {
		return &domain.WorkflowError{WorkflowID: state.WorkflowID, From: state.Current, To: to, Reason: "transition not allowed"}
	}

	t := domain.Transition{From: state.Current, To: to, Reason: reason, At: e.now()}
	state.History = append(state.History, t)
	state.Current = to
	state.UpdatedAt = t.At
	e.emitTransition(ctx, state.WorkflowID, t)
	return nil
}

// fail records the step error and moves the workflow to failed.
func (e *Engine) fail(ctx context.Context, state *domain.WorkflowState, step domain.WorkflowStatus, cause error) *domain.WorkflowState {
	state.Errors = append(state.Errors, domain.StepError{
		Step:      step,
		Kind:      domain.ErrorKind(cause),
		Message:   cause.Error(),
		Timestamp: e.now(),
	})
	state.FailedStep = step

	e.logger.Warn("workflow step failed", "workflow_id", state.WorkflowID, "step", step, "err", cause)

	// Any non-terminal state may fail, so this cannot be rejected.
	_ = e.transition(ctx, state, domain.StatusFailed, cause.Error())
	return state
}

func cloneState(src *domain.WorkflowState) *domain.WorkflowState {
	return src.Clone()
}
