// Package mock provides a deterministic in-process carrier used for demos and tests.
package mock

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

const (
	basePremium     = 100.0
	referenceAge    = 50.0
	tobaccoFactor   = 1.5
	dependentCost   = 50.0
	deductible      = 1000.0
	defaultCoverage = 50000.0
	minimumAge      = 18
)

// namespace seeds the name-based UUIDs so equal requests get equal ids.
var namespace = uuid.MustParse("6f1c6a52-1d1e-4f0a-9b44-8f0d2c1b7e90")

// Provider prices with a fixed formula and keeps enrollments in memory.
type Provider struct {
	id  string
	now func() time.Time

	mu          sync.RWMutex
	enrollments map[string]domain.EnrollmentStatus
}

// Option configures the mock provider.
type Option func(*Provider)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// New creates a mock provider answering to id.
func New(id string, opts ...Option) *Provider {
	p := &Provider{
		id:          id,
		now:         time.Now,
		enrollments: make(map[string]domain.EnrollmentStatus),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) ID() string { return p.id }

// CheckEligibility only accepts adults.
func (p *Provider) CheckEligibility(ctx context.Context, product domain.Product, consumer domain.Consumer) (domain.EligibilityResult, error) {
	raw, ok := consumer.Lookup("age")
	if !ok {
		return domain.EligibilityResult{Reasons: []string{"Consumer age is required"}}, nil
	}
	age, err := cast.ToIntE(raw)
	if err != nil {
		return domain.EligibilityResult{Reasons: []string{"Consumer age is not a number"}}, nil
	}
	if age < minimumAge {
		return domain.EligibilityResult{Reasons: []string{fmt.Sprintf("Consumer must be %d or older", minimumAge)}}, nil
	}
	return domain.EligibilityResult{Eligible: true, Reasons: []string{}}, nil
}

// GetQuote prices 100 * age/50, times 1.5 for tobacco users, plus 50 per dependent.
func (p *Provider) GetQuote(ctx context.Context, product domain.Product, consumer domain.Consumer, req domain.QuoteRequest) (domain.ProviderQuote, error) {
	raw, ok := consumer.Lookup("age")
	if !ok {
		return domain.ProviderQuote{}, &domain.ProviderError{ProviderID: p.id, Op: "get_quote", Message: "consumer age is required"}
	}
	age, err := cast.ToFloat64E(raw)
	if err != nil {
		return domain.ProviderQuote{}, &domain.ProviderError{ProviderID: p.id, Op: "get_quote", Message: "consumer age is not a number", Cause: err}
	}

	premium := basePremium * age / referenceAge
	if tobacco, _ := consumer.Lookup("tobacco_user"); cast.ToBool(tobacco) {
		premium *= tobaccoFactor
	}
	premium = math.Round(premium*100) / 100
	premium += float64(req.Dependents) * dependentCost

	coverage := req.CoverageAmount
	if coverage <= 0 {
		coverage = defaultCoverage
	}

	effective := p.now()
	if req.EffectiveDate != nil {
		effective = *req.EffectiveDate
	}

	coverageType := "individual"
	if req.Dependents > 0 {
		coverageType = "family"
	}

	key := fmt.Sprintf("%s|%s|%s|%.2f|%d|%s", p.id, product.ID, consumer.ID, coverage, req.Dependents, effective.Format(time.RFC3339))
	return domain.ProviderQuote{
		QuoteID:        uuid.NewSHA1(namespace, []byte(key)).String(),
		MonthlyPremium: premium,
		Deductible:     deductible,
		CoverageAmount: coverage,
		EffectiveDate:  effective,
		ExpirationDate: effective.AddDate(0, 0, domain.QuoteValidityDays),
		Details: map[string]string{
			"provider":      p.id,
			"coverage_type": coverageType,
			"network":       "PPO",
		},
	}, nil
}

// InitiateEnrollment records a pending enrollment.
func (p *Provider) InitiateEnrollment(ctx context.Context, quote domain.Quote, consumer domain.Consumer, data map[string]any) (domain.Enrollment, error) {
	now := p.now()
	id := uuid.NewSHA1(namespace, []byte(p.id+"|enrollment|"+quote.QuoteID)).String()

	p.mu.Lock()
	p.enrollments[id] = domain.EnrollmentStatus{
		EnrollmentID: id,
		Status:       "pending",
		Progress:     0.33,
		CurrentStep:  "awaiting_payment",
		UpdatedAt:    now,
	}
	p.mu.Unlock()

	return domain.Enrollment{
		EnrollmentID: id,
		ProviderID:   p.id,
		QuoteID:      quote.QuoteID,
		Status:       "pending",
		NextSteps: []string{
			"Submit payment information",
			"Upload required documents",
			"E-signature required",
		},
		EstimatedCompletion: now.AddDate(0, 0, 3),
	}, nil
}

func (p *Provider) GetEnrollmentStatus(ctx context.Context, enrollmentID string) (domain.EnrollmentStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status, ok := p.enrollments[enrollmentID]
	if !ok {
		return domain.EnrollmentStatus{}, &domain.NotFoundError{Kind: "enrollment", ID: enrollmentID}
	}
	return status, nil
}
