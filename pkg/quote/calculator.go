// Package quote turns provider pricing answers into canonical, immutable quotes.
package quote

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/ports"
	"github.com/google/uuid"
)

// Calculator validates quote requests and canonicalizes provider answers.
type Calculator struct {
	providers ports.ProviderResolver
	invoke    ports.Invoker
	now       func() time.Time
	newID     func() string
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithInvoker routes provider calls through invoke (retries, deadlines, metrics).
func WithInvoker(invoke ports.Invoker) Option {
	return func(c *Calculator) {
		c.invoke = invoke
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// WithIDGenerator replaces the random quote ID generator used when a provider returns none.
func WithIDGenerator(newID func() string) Option {
	return func(c *Calculator) {
		c.newID = newID
	}
}

// NewCalculator creates a calculator resolving providers through providers.
func NewCalculator(providers ports.ProviderResolver, opts ...Option) *Calculator {
	c := &Calculator{
		providers: providers,
		invoke:    ports.DirectInvoker,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote prices product for consumer. Input problems are reported as ValidationError
// before any provider is contacted.
func (c *Calculator) Quote(ctx context.Context, product domain.Product, consumer domain.Consumer, req domain.QuoteRequest) (domain.Quote, error) {
	req, err := Normalize(product, consumer, req)
	if err != nil {
		return domain.Quote{}, err
	}

	provider, err := c.providers.Resolve(product.ProviderID)
	if err != nil {
		return domain.Quote{}, err
	}

	var answer domain.ProviderQuote
	err = c.invoke(ctx, provider.ID(), "get_quote", func(ctx context.Context) error {
		var err error
		answer, err = provider.GetQuote(ctx, product, consumer, req)
		return err
	})
	if err != nil {
		return domain.Quote{}, err
	}

	return c.Canonicalize(provider.ID(), req, answer)
}

// Normalize checks the request against the product and consumer and fills blank ids.
func Normalize(product domain.Product, consumer domain.Consumer, req domain.QuoteRequest) (domain.QuoteRequest, error) {
	if consumer.ID == "" {
		return req, &domain.ValidationError{Field: "consumer.id", Reason: "is required"}
	}
	if req.ProductID == "" {
		req.ProductID = product.ID
	}
	if req.ProductID != product.ID {
		return req, &domain.ValidationError{Field: "product_id", Reason: fmt.Sprintf("does not match product %q", product.ID), Value: req.ProductID}
	}
	if req.ConsumerID == "" {
		req.ConsumerID = consumer.ID
	}
	if req.ConsumerID != consumer.ID {
		return req, &domain.ValidationError{Field: "consumer_id", Reason: fmt.Sprintf("does not match consumer %q", consumer.ID), Value: req.ConsumerID}
	}
	if math.IsNaN(req.CoverageAmount) || math.IsInf(req.CoverageAmount, 0) || req.CoverageAmount <= 0 {
		return req, &domain.ValidationError{Field: "coverage_amount", Reason: "must be greater than zero", Value: req.CoverageAmount}
	}
	if req.Dependents < 0 {
		return req, &domain.ValidationError{Field: "dependents", Reason: "must not be negative", Value: req.Dependents}
	}
	return req, nil
}

// Canonicalize maps a provider answer to a Quote. Product, consumer and provider ids
// always come from the request, never from the provider.
func (c *Calculator) Canonicalize(providerID string, req domain.QuoteRequest, answer domain.ProviderQuote) (domain.Quote, error) {
	invalid := func(msg string) error {
		return &domain.ProviderError{ProviderID: providerID, Op: "get_quote", Message: msg}
	}

	if math.IsNaN(answer.MonthlyPremium) || math.IsInf(answer.MonthlyPremium, 0) || answer.MonthlyPremium < 0 {
		return domain.Quote{}, invalid(fmt.Sprintf("invalid monthly premium %v", answer.MonthlyPremium))
	}
	if math.IsNaN(answer.Deductible) || answer.Deductible < 0 {
		return domain.Quote{}, invalid(fmt.Sprintf("invalid deductible %v", answer.Deductible))
	}

	now := c.now()
	q := domain.Quote{
		QuoteID:        answer.QuoteID,
		ProductID:      req.ProductID,
		ConsumerID:     req.ConsumerID,
		ProviderID:     providerID,
		MonthlyPremium: RoundCents(answer.MonthlyPremium),
		Deductible:     RoundCents(answer.Deductible),
		CoverageAmount: RoundCents(req.CoverageAmount),
		EffectiveDate:  answer.EffectiveDate,
		ExpirationDate: answer.ExpirationDate,
		CreatedAt:      now,
	}
	if q.QuoteID == "" {
		q.QuoteID = c.newID()
	}
	if answer.CoverageAmount > 0 {
		q.CoverageAmount = RoundCents(answer.CoverageAmount)
	}
	if q.EffectiveDate.IsZero() {
		q.EffectiveDate = now
		if req.EffectiveDate != nil {
			q.EffectiveDate = *req.EffectiveDate
		}
	}
	if q.ExpirationDate.IsZero() {
		q.ExpirationDate = q.EffectiveDate.AddDate(0, 0, domain.QuoteValidityDays)
	}
	if !q.ExpirationDate.After(q.EffectiveDate) {
		return domain.Quote{}, invalid("expiration date does not follow effective date")
	}
	if len(answer.Details) > 0 {
		q.Details = make(map[string]string, len(answer.Details))
		for k, v := range answer.Details {
			q.Details[k] = v
		}
	}
	return q, nil
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
