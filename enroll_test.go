package enroll_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/enroll"
	"github.com/aretw0/enroll/internal/runtime"
	"github.com/aretw0/enroll/pkg/adapters/mock"
	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func next(s string) *string { return &s }

func testProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "health-basic",
			Name:        "Basic Health",
			Category:    domain.CategoryHealth,
			ProviderID:  "mock",
			Description: "Entry level health plan",
			EligibilityRules: []domain.EligibilityRule{{
				Name:       "age_requirement",
				Qualifiers: []domain.Qualifier{{Name: "adult", Field: "age", Operator: domain.OpGreaterEqual, Value: 18}},
			}},
			Disclaimers: []domain.Disclaimer{
				{Type: "legal", Title: "Terms of Coverage", Content: "...", RequiredAcknowledgment: true},
			},
			EnrollmentFlow: []domain.EnrollmentStep{
				{StepID: "personal", Name: "Personal", RequiredFields: []string{"first_name", "email"}, NextStep: next("payment")},
				{StepID: "payment", Name: "Payment", RequiredFields: []string{"payment_method"}},
			},
			CrossSellProducts: []string{"dental-plus", "x-999"},
			Active:            true,
		},
		{ID: "dental-plus", Name: "Dental Plus", Category: domain.CategoryDental, ProviderID: "mock", Active: true},
		{ID: "vision-old", Name: "Vision", Category: domain.CategoryVision, ProviderID: "mock", Active: false},
	}
}

func newEngine(t *testing.T, opts ...enroll.Option) *enroll.Engine {
	t.Helper()

	cat := catalog.New()
	for _, p := range testProducts() {
		require.NoError(t, cat.Register(p))
	}
	providers := registry.NewRegistry()
	providers.MustRegister(mock.New("mock", mock.WithClock(clock)))

	base := []enroll.Option{enroll.WithClock(clock), enroll.WithRetryDelay(time.Millisecond)}
	eng, err := enroll.New(cat, providers, append(base, opts...)...)
	require.NoError(t, err)
	return eng
}

var consumer = domain.Consumer{
	ID:        "c-42",
	FirstName: "Grace",
	LastName:  "Hopper",
	Email:     "grace@example.com",
	Profile:   map[string]any{"age": 45, "tobacco_user": false},
}

func TestNew_RequiresCatalogAndRegistry(t *testing.T) {
	_, err := enroll.New(nil, registry.NewRegistry())
	assert.Error(t, err)
	_, err = enroll.New(catalog.New(), nil)
	assert.Error(t, err)
}

func TestNew_FreezesCatalogAndRegistry(t *testing.T) {
	eng := newEngine(t)

	assert.True(t, eng.Catalog().Frozen())
	err := eng.Catalog().Register(domain.Product{ID: "late", Name: "Late", Category: domain.CategoryLife, ProviderID: "mock"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	err = eng.Providers().Register(mock.New("other"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestEngine_Search(t *testing.T) {
	eng := newEngine(t)

	all := eng.Search(catalog.Filter{})
	assert.Len(t, all, 3)

	active := eng.Search(catalog.Filter{ActiveOnly: true})
	require.Len(t, active, 2)
	assert.Equal(t, "health-basic", active[0].ID)
	assert.Equal(t, "Entry level health plan", active[0].Description)

	dental := eng.Search(catalog.Filter{Category: domain.CategoryDental})
	require.Len(t, dental, 1)
	assert.Equal(t, "dental-plus", dental[0].ID)

	assert.Empty(t, eng.Search(catalog.Filter{ProviderID: "nobody"}))
}

func TestEngine_CheckEligibility(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	res, err := eng.CheckEligibility(ctx, "health-basic", consumer)
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Len(t, res.Disclaimers, 1)
	assert.Len(t, res.EnrollmentSteps, 2)

	minor := consumer
	minor.Profile = map[string]any{"age": 16}
	res, err = eng.CheckEligibility(ctx, "health-basic", minor)
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Equal(t, []string{"age_requirement failed"}, res.Reasons)

	// The product has no rules; the provider still requires an adult.
	res, err = eng.CheckEligibility(ctx, "dental-plus", minor)
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Equal(t, []string{"Consumer must be 18 or older"}, res.Reasons)

	_, err = eng.CheckEligibility(ctx, "ghost", consumer)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = eng.CheckEligibility(ctx, "vision-old", consumer)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEngine_GenerateQuote(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	q, err := eng.GenerateQuote(ctx, "health-basic", consumer, domain.QuoteRequest{Dependents: 2})
	require.NoError(t, err)

	assert.NotEmpty(t, q.QuoteID)
	assert.Equal(t, "health-basic", q.ProductID)
	assert.Equal(t, "c-42", q.ConsumerID)
	assert.Equal(t, "mock", q.ProviderID)
	assert.Equal(t, 190.0, q.MonthlyPremium, "90 for age 45 plus 50 per dependent")
	assert.Equal(t, 1000.0, q.Deductible)
	assert.Equal(t, 50000.0, q.CoverageAmount)
	assert.Equal(t, now, q.EffectiveDate)
	assert.Equal(t, now.AddDate(0, 0, 30), q.ExpirationDate)
	assert.Equal(t, "family", q.Details["coverage_type"])

	_, err = eng.GenerateQuote(ctx, "health-basic", consumer, domain.QuoteRequest{CoverageAmount: -5})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEngine_CrossSell(t *testing.T) {
	eng := newEngine(t)

	offers, err := eng.CrossSell("health-basic")
	require.NoError(t, err)
	require.Len(t, offers, 1, "dangling x-999 is excluded")
	assert.Equal(t, "dental-plus", offers[0].ID)
	assert.Equal(t, "Commonly paired with health-basic", offers[0].WhyRecommended)

	offers, err = eng.CrossSell("dental-plus")
	require.NoError(t, err)
	assert.Empty(t, offers)

	_, err = eng.CrossSell("ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_InitiateEnrollment(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	q, err := eng.GenerateQuote(ctx, "health-basic", consumer, domain.QuoteRequest{CoverageAmount: 75000})
	require.NoError(t, err)

	_, err = eng.InitiateEnrollment(ctx, consumer, q, domain.EnrollmentInput{Data: map[string]any{"payment_method": "card"}})
	assert.ErrorIs(t, err, domain.ErrValidation, "the legal disclaimer is not acknowledged")

	enrollment, err := eng.InitiateEnrollment(ctx, consumer, q, domain.EnrollmentInput{
		Acknowledgments: []string{"terms of coverage"},
		Data:            map[string]any{"payment_method": "card"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", enrollment.Status)
	assert.Equal(t, q.QuoteID, enrollment.QuoteID)

	status, err := eng.EnrollmentStatus(ctx, "mock", enrollment.EnrollmentID)
	require.NoError(t, err)
	assert.Equal(t, 0.33, status.Progress)

	stranger := consumer
	stranger.ID = "c-7"
	_, err = eng.InitiateEnrollment(ctx, stranger, q, domain.EnrollmentInput{Acknowledgments: []string{"legal"}})
	assert.ErrorIs(t, err, domain.ErrValidation, "the quote belongs to someone else")
}

func TestEngine_InitiateEnrollmentTrustsOnlyIssuedQuotes(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	input := domain.EnrollmentInput{
		Acknowledgments: []string{"legal"},
		Data:            map[string]any{"payment_method": "card"},
	}

	forged := domain.Quote{QuoteID: "q-forged", ProductID: "health-basic", ConsumerID: consumer.ID, ProviderID: "mock", MonthlyPremium: 1}
	_, err := eng.InitiateEnrollment(ctx, consumer, forged, input)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "not issued")

	q, err := eng.GenerateQuote(ctx, "health-basic", consumer, domain.QuoteRequest{})
	require.NoError(t, err)

	moved := q
	moved.ProductID = "dental-plus"
	_, err = eng.InitiateEnrollment(ctx, consumer, moved, input)
	assert.ErrorIs(t, err, domain.ErrValidation)

	cheaper := q
	cheaper.MonthlyPremium = 1
	enrollment, err := eng.InitiateEnrollment(ctx, consumer, cheaper, input)
	require.NoError(t, err)
	assert.Equal(t, q.QuoteID, enrollment.QuoteID)
}

func TestEngine_WorkflowLifecycle(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	state, err := eng.StartWorkflow(ctx, "wf-1", consumer, "health-basic")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInitiated, state.Current)

	_, err = eng.StartWorkflow(ctx, "wf-1", consumer, "health-basic")
	assert.ErrorIs(t, err, domain.ErrWorkflow, "ids are unique")

	input := domain.WorkflowInput{Enrollment: domain.EnrollmentInput{Data: map[string]any{"payment_method": "card"}}}
	failed, err := eng.RunWorkflow(ctx, "wf-1", consumer, input)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, failed.Current)
	assert.Equal(t, domain.StatusEnrollment, failed.FailedStep)

	stored, err := eng.GetWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, failed, stored)

	_, err = eng.AdvanceWorkflow(ctx, "wf-1", consumer, input)
	assert.ErrorIs(t, err, domain.ErrWorkflow, "failed workflows must be resumed first")

	resumed, err := eng.ResumeWorkflow(ctx, "wf-1", false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnrollment, resumed.Current)

	input.Enrollment.Acknowledgments = []string{"Terms of Coverage"}
	done, err := eng.AdvanceWorkflow(ctx, "wf-1", consumer, input)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Current)
	assert.Equal(t, []string{"dental-plus"}, done.CrossSellCandidates)
	require.NotNil(t, done.Enrollment)

	ids, err := eng.ListWorkflows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"wf-1"}, ids)

	require.NoError(t, eng.DeleteWorkflow(ctx, "wf-1"))
	_, err = eng.GetWorkflow(ctx, "wf-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEngine_WorkflowRejectsOtherConsumer(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.StartWorkflow(ctx, "wf-2", consumer, "health-basic")
	require.NoError(t, err)

	other := consumer
	other.ID = "intruder"
	_, err = eng.AdvanceWorkflow(ctx, "wf-2", other, domain.WorkflowInput{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := eng.GetWorkflow(ctx, "wf-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInitiated, stored.Current)
	assert.Empty(t, stored.History)
}

func TestEngine_ConcurrentAdvanceNeverSkipsStates(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.StartWorkflow(ctx, "wf-c", consumer, "health-basic")
	require.NoError(t, err)

	input := domain.WorkflowInput{Enrollment: domain.EnrollmentInput{
		Acknowledgments: []string{"legal"},
		Data:            map[string]any{"payment_method": "card"},
	}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = eng.AdvanceWorkflow(ctx, "wf-c", consumer, input)
		}()
	}
	wg.Wait()

	final, err := eng.RunWorkflow(ctx, "wf-c", consumer, input)
	require.NoError(t, err)
	assert.Equal(t, []domain.WorkflowStatus{
		domain.StatusInitiated,
		domain.StatusEligibilityCheck,
		domain.StatusQuoteGeneration,
		domain.StatusCrossSell,
		domain.StatusEnrollment,
		domain.StatusCompleted,
	}, final.Path())
}

func TestEngine_ResumeRestartPolicy(t *testing.T) {
	eng := newEngine(t, enroll.WithResumePolicy(runtime.ResumeRestart))
	ctx := context.Background()

	_, err := eng.StartWorkflow(ctx, "wf-r", consumer, "health-basic")
	require.NoError(t, err)
	failed, err := eng.RunWorkflow(ctx, "wf-r", consumer, domain.WorkflowInput{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusFailed, failed.Current)

	resumed, err := eng.ResumeWorkflow(ctx, "wf-r", false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInitiated, resumed.Current)
	assert.Nil(t, resumed.Quote)
}

func TestEngine_Hooks(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	hooks := domain.LifecycleHooks{
		OnProviderCall: func(ctx context.Context, e *domain.ProviderCallEvent) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, e.ProviderID+"/"+e.Op)
		},
	}
	eng := newEngine(t, enroll.WithLifecycleHooks(hooks))

	_, err := eng.GenerateQuote(context.Background(), "health-basic", consumer, domain.QuoteRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"mock/get_quote"}, calls)
}
