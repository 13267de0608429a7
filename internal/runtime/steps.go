package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/eligibility"
)

// DefaultCoverage is used when a workflow's quote input names no coverage amount.
const DefaultCoverage = 50000.0

// Steps write into the state only after everything they need has succeeded.

func (e *Engine) stepInitiate(ctx context.Context, state *domain.WorkflowState) error {
	product, err := e.catalog.Get(state.ProductID)
	if err != nil {
		return err
	}
	if !product.Active {
		return &domain.ValidationError{Field: "product_id", Reason: "product is not available", Value: product.ID}
	}
	_, err = e.providers.Resolve(product.ProviderID)
	return err
}

func (e *Engine) stepEligibility(ctx context.Context, state *domain.WorkflowState, consumer domain.Consumer) error {
	product, err := e.catalog.Get(state.ProductID)
	if err != nil {
		return err
	}
	res, err := e.Eligibility(ctx, state.WorkflowID, *product, consumer)
	if err != nil {
		return err
	}
	if !res.Eligible {
		return &domain.IneligibleError{ProductID: product.ID, Reasons: res.Reasons}
	}
	return nil
}

func (e *Engine) stepQuote(ctx context.Context, state *domain.WorkflowState, consumer domain.Consumer, req domain.QuoteRequest) error {
	product, err := e.catalog.Get(state.ProductID)
	if err != nil {
		return err
	}
	if req.CoverageAmount == 0 {
		req.CoverageAmount = DefaultCoverage
	}

	q, err := e.Calculator(state.WorkflowID).Quote(ctx, *product, consumer, req)
	if err != nil {
		return err
	}
	state.Quote = &q
	return nil
}

func (e *Engine) stepCrossSell(ctx context.Context, state *domain.WorkflowState) error {
	products, err := e.catalog.CrossSellFor(state.ProductID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	state.CrossSellCandidates = ids
	return nil
}

func (e *Engine) stepEnroll(ctx context.Context, state *domain.WorkflowState, consumer domain.Consumer, input domain.EnrollmentInput) error {
	if state.Quote == nil {
		return &domain.WorkflowError{WorkflowID: state.WorkflowID, From: state.Current, Reason: "no quote to enroll with"}
	}
	product, err := e.catalog.Get(state.ProductID)
	if err != nil {
		return err
	}

	enrollment, acked, err := e.Enroll(ctx, state.WorkflowID, *product, consumer, *state.Quote, input)
	if err != nil {
		return err
	}
	state.Enrollment = &enrollment
	state.Acknowledged = acked
	return nil
}

// Eligibility runs the product rules and, when they pass, the provider's own checks.
// An eligible result carries the product's disclaimers and enrollment steps.
func (e *Engine) Eligibility(ctx context.Context, workflowID string, product domain.Product, consumer domain.Consumer) (domain.EligibilityResult, error) {
	provider, err := e.providers.Resolve(product.ProviderID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}

	ok, reasons := eligibility.Check(&product, consumer.Attributes())
	e.emitEligibility(ctx, workflowID, product.ID, ok)
	if !ok {
		return domain.EligibilityResult{Eligible: false, Reasons: reasons}, nil
	}

	var res domain.EligibilityResult
	err = e.Invoker(workflowID)(ctx, provider.ID(), "check_eligibility", func(ctx context.Context) error {
		var err error
		res, err = provider.CheckEligibility(ctx, product, consumer)
		return err
	})
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	if !res.Eligible {
		if res.Reasons == nil {
			res.Reasons = []string{}
		}
		return domain.EligibilityResult{Eligible: false, Reasons: res.Reasons}, nil
	}

	return domain.EligibilityResult{
		Eligible:        true,
		Reasons:         []string{},
		Disclaimers:     product.Disclaimers,
		EnrollmentSteps: product.EnrollmentFlow,
	}, nil
}

// Enroll checks acknowledgments, required fields and quote validity, then asks the
// provider to enroll. It returns the enrollment and the acknowledged disclaimer titles.
func (e *Engine) Enroll(ctx context.Context, workflowID string, product domain.Product, consumer domain.Consumer, q domain.Quote, input domain.EnrollmentInput) (domain.Enrollment, []string, error) {
	if q.ProductID != product.ID || q.ConsumerID != consumer.ID {
		return domain.Enrollment{}, nil, &domain.ValidationError{Field: "quote_id", Reason: "quote was issued for another product or consumer", Value: q.QuoteID}
	}
	if q.Expired(e.now()) {
		return domain.Enrollment{}, nil, &domain.ValidationError{Field: "quote_id", Reason: "quote has expired", Value: q.QuoteID}
	}

	acked, missing := matchAcknowledgments(product.RequiredDisclaimers(), input.Acknowledgments)
	if len(missing) > 0 {
		return domain.Enrollment{}, nil, &domain.ValidationError{
			Field:  "acknowledgments",
			Reason: "missing required acknowledgment: " + strings.Join(missing, ", "),
		}
	}

	if missing := missingFields(product.RequiredFields(), consumer, input.Data); len(missing) > 0 {
		return domain.Enrollment{}, nil, &domain.ValidationError{
			Field:  "data",
			Reason: "missing required field: " + strings.Join(missing, ", "),
		}
	}

	provider, err := e.providers.Resolve(product.ProviderID)
	if err != nil {
		return domain.Enrollment{}, nil, err
	}

	var enrollment domain.Enrollment
	err = e.Invoker(workflowID)(ctx, provider.ID(), "initiate_enrollment", func(ctx context.Context) error {
		var err error
		enrollment, err = provider.InitiateEnrollment(ctx, q, consumer, input.Data)
		return err
	})
	if err != nil {
		return domain.Enrollment{}, nil, err
	}
	if enrollment.ProviderID == "" {
		enrollment.ProviderID = provider.ID()
	}
	if enrollment.QuoteID == "" {
		enrollment.QuoteID = q.QuoteID
	}
	return enrollment, acked, nil
}

// EnrollmentStatus asks the product's provider about an enrollment.
func (e *Engine) EnrollmentStatus(ctx context.Context, providerID, enrollmentID string) (domain.EnrollmentStatus, error) {
	if enrollmentID == "" {
		return domain.EnrollmentStatus{}, &domain.ValidationError{Field: "enrollment_id", Reason: "is required"}
	}
	provider, err := e.providers.Resolve(providerID)
	if err != nil {
		return domain.EnrollmentStatus{}, err
	}

	var status domain.EnrollmentStatus
	err = e.Invoker("")(ctx, provider.ID(), "get_enrollment_status", func(ctx context.Context) error {
		var err error
		status, err = provider.GetEnrollmentStatus(ctx, enrollmentID)
		return err
	})
	return status, err
}

// matchAcknowledgments matches required disclaimers by title or type, ignoring case.
func matchAcknowledgments(required []domain.Disclaimer, given []string) (acked, missing []string) {
	seen := make(map[string]bool, len(given))
	for _, g := range given {
		seen[strings.ToLower(strings.TrimSpace(g))] = true
	}
	for _, d := range required {
		if seen[strings.ToLower(d.Title)] || seen[strings.ToLower(d.Type)] {
			acked = append(acked, d.Title)
			continue
		}
		missing = append(missing, fmt.Sprintf("%q", d.Title))
	}
	return acked, missing
}

func missingFields(required []string, consumer domain.Consumer, data map[string]any) []string {
	var missing []string
	for _, f := range required {
		if v, ok := data[f]; ok && v != nil && v != "" {
			continue
		}
		if _, ok := consumer.Lookup(f); ok {
			continue
		}
		missing = append(missing, f)
	}
	return missing
}
