package carrier

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
)

type eligibilityRequest struct {
	Product  domain.Product  `json:"product"`
	Consumer domain.Consumer `json:"consumer"`
}

type eligibilityResponse struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons"`
}

type quoteRequest struct {
	ProductID string              `json:"product_id"`
	Consumer  domain.Consumer     `json:"consumer"`
	Request   domain.QuoteRequest `json:"request"`
}

type quoteResponse struct {
	QuoteID        string            `json:"quote_id"`
	MonthlyPremium float64           `json:"monthly_premium"`
	Deductible     float64           `json:"deductible"`
	CoverageAmount float64           `json:"coverage_amount"`
	EffectiveDate  *time.Time        `json:"effective_date"`
	ExpirationDate *time.Time        `json:"expiration_date"`
	Details        map[string]string `json:"details"`
}

type enrollmentRequest struct {
	Quote    domain.Quote    `json:"quote"`
	Consumer domain.Consumer `json:"consumer"`
	Data     map[string]any  `json:"data,omitempty"`
}

func (p *Provider) CheckEligibility(ctx context.Context, product domain.Product, consumer domain.Consumer) (domain.EligibilityResult, error) {
	var resp eligibilityResponse
	if err := p.do(ctx, "check_eligibility", http.MethodPost, "/eligibility", eligibilityRequest{product, consumer}, &resp); err != nil {
		return domain.EligibilityResult{}, err
	}
	if resp.Reasons == nil {
		resp.Reasons = []string{}
	}
	return domain.EligibilityResult{Eligible: resp.Eligible, Reasons: resp.Reasons}, nil
}

func (p *Provider) GetQuote(ctx context.Context, product domain.Product, consumer domain.Consumer, req domain.QuoteRequest) (domain.ProviderQuote, error) {
	var resp quoteResponse
	if err := p.do(ctx, "get_quote", http.MethodPost, "/quotes", quoteRequest{product.ID, consumer, req}, &resp); err != nil {
		return domain.ProviderQuote{}, err
	}

	q := domain.ProviderQuote{
		QuoteID:        resp.QuoteID,
		MonthlyPremium: resp.MonthlyPremium,
		Deductible:     resp.Deductible,
		CoverageAmount: resp.CoverageAmount,
		Details:        resp.Details,
	}
	if resp.EffectiveDate != nil {
		q.EffectiveDate = *resp.EffectiveDate
	}
	if resp.ExpirationDate != nil {
		q.ExpirationDate = *resp.ExpirationDate
	}
	return q, nil
}

func (p *Provider) InitiateEnrollment(ctx context.Context, quote domain.Quote, consumer domain.Consumer, data map[string]any) (domain.Enrollment, error) {
	var enr domain.Enrollment
	if err := p.do(ctx, "initiate_enrollment", http.MethodPost, "/enrollments", enrollmentRequest{quote, consumer, data}, &enr); err != nil {
		return domain.Enrollment{}, err
	}
	if enr.EnrollmentID == "" {
		return domain.Enrollment{}, &domain.ProviderError{ProviderID: p.cfg.ID, Op: "initiate_enrollment", Message: "response has no enrollment_id"}
	}
	enr.ProviderID = p.cfg.ID
	if enr.QuoteID == "" {
		enr.QuoteID = quote.QuoteID
	}
	return enr, nil
}

func (p *Provider) GetEnrollmentStatus(ctx context.Context, enrollmentID string) (domain.EnrollmentStatus, error) {
	var status domain.EnrollmentStatus
	err := p.do(ctx, "get_enrollment_status", http.MethodGet, "/enrollments/"+url.PathEscape(enrollmentID), nil, &status)

	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.StatusCode == http.StatusNotFound {
		return domain.EnrollmentStatus{}, &domain.NotFoundError{Kind: "enrollment", ID: enrollmentID}
	}
	if err != nil {
		return domain.EnrollmentStatus{}, err
	}
	if status.EnrollmentID == "" {
		status.EnrollmentID = enrollmentID
	}
	return status, nil
}
