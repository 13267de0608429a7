package enroll

import (
	"context"
	"fmt"

	"github.com/aretw0/enroll/internal/runtime"
	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
)

// CrossSellOffer is a product recommended alongside another one.
type CrossSellOffer struct {
	domain.ProductSummary
	WhyRecommended string `json:"why_recommended"`
}

// Search lists the catalog products matching f, in load order.
func (e *Engine) Search(f catalog.Filter) []domain.ProductSummary {
	products := e.catalog.Search(f)
	out := make([]domain.ProductSummary, 0, len(products))
	for _, p := range products {
		out = append(out, p.Summary())
	}
	return out
}

// Product returns the full definition of a product.
func (e *Engine) Product(id string) (*domain.Product, error) {
	return e.catalog.Get(id)
}

// CheckEligibility evaluates the product rules and the provider's own checks.
func (e *Engine) CheckEligibility(ctx context.Context, productID string, consumer domain.Consumer) (domain.EligibilityResult, error) {
	product, err := e.activeProduct(productID)
	if err != nil {
		return domain.EligibilityResult{}, err
	}
	return e.runtime.Eligibility(ctx, "", *product, consumer)
}

// GenerateQuote prices a product. A zero coverage amount gets the default coverage.
func (e *Engine) GenerateQuote(ctx context.Context, productID string, consumer domain.Consumer, req domain.QuoteRequest) (domain.Quote, error) {
	product, err := e.activeProduct(productID)
	if err != nil {
		return domain.Quote{}, err
	}
	if req.CoverageAmount == 0 {
		req.CoverageAmount = runtime.DefaultCoverage
	}
	q, err := e.runtime.Calculator("").Quote(ctx, *product, consumer, req)
	if err != nil {
		return domain.Quote{}, err
	}
	e.rememberQuote(q)
	return q, nil
}

// CrossSell returns the active products linked from productID.
func (e *Engine) CrossSell(productID string) ([]CrossSellOffer, error) {
	products, err := e.catalog.CrossSellFor(productID)
	if err != nil {
		return nil, err
	}
	out := make([]CrossSellOffer, 0, len(products))
	for _, p := range products {
		out = append(out, CrossSellOffer{
			ProductSummary: p.Summary(),
			WhyRecommended: fmt.Sprintf("Commonly paired with %s", productID),
		})
	}
	return out, nil
}

// InitiateEnrollment enrolls consumer with a quote previously issued by GenerateQuote.
// Only the quote id of q is trusted; every other field is taken from the issued quote.
func (e *Engine) InitiateEnrollment(ctx context.Context, consumer domain.Consumer, q domain.Quote, input domain.EnrollmentInput) (domain.Enrollment, error) {
	if q.QuoteID == "" {
		return domain.Enrollment{}, &domain.ValidationError{Field: "quote_id", Reason: "is required"}
	}
	issued, ok := e.issuedQuote(q.QuoteID)
	if !ok {
		return domain.Enrollment{}, &domain.ValidationError{Field: "quote_id", Reason: "was not issued by this engine or has expired", Value: q.QuoteID}
	}
	if q.ProductID != "" && q.ProductID != issued.ProductID {
		return domain.Enrollment{}, &domain.ValidationError{Field: "product_id", Reason: "does not match the issued quote", Value: q.ProductID}
	}
	q = issued
	product, err := e.activeProduct(q.ProductID)
	if err != nil {
		return domain.Enrollment{}, err
	}
	enrollment, _, err := e.runtime.Enroll(ctx, "", *product, consumer, q, input)
	return enrollment, err
}

// EnrollmentStatus asks a provider about one of its enrollments.
func (e *Engine) EnrollmentStatus(ctx context.Context, providerID, enrollmentID string) (domain.EnrollmentStatus, error) {
	return e.runtime.EnrollmentStatus(ctx, providerID, enrollmentID)
}

func (e *Engine) rememberQuote(q domain.Quote) {
	e.issuedMu.Lock()
	defer e.issuedMu.Unlock()

	now := e.now()
	for id, old := range e.issued {
		if old.Expired(now) {
			delete(e.issued, id)
		}
	}
	e.issued[q.QuoteID] = q
}

func (e *Engine) issuedQuote(id string) (domain.Quote, bool) {
	e.issuedMu.Lock()
	defer e.issuedMu.Unlock()
	q, ok := e.issued[id]
	return q, ok
}

func (e *Engine) activeProduct(id string) (*domain.Product, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "product_id", Reason: "is required"}
	}
	product, err := e.catalog.Get(id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, &domain.ValidationError{Field: "product_id", Reason: "product is not available", Value: id}
	}
	return product, nil
}
