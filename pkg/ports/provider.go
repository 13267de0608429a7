package ports

import (
	"context"

	"github.com/aretw0/enroll/pkg/domain"
)

// Provider is the capability interface every carrier integration implements.
// Implementations report failures as *domain.ProviderError and mark transient
// ones Retryable; the orchestration layer owns the retry policy.
type Provider interface {
	// ID is the identifier products reference through provider_id.
	ID() string

	// CheckEligibility applies provider-level rules after the product rules passed.
	// Only Eligible and Reasons of the result are meaningful.
	CheckEligibility(ctx context.Context, product domain.Product, consumer domain.Consumer) (domain.EligibilityResult, error)

	// GetQuote prices the product. Zero fields of the answer are filled with defaults by the caller.
	GetQuote(ctx context.Context, product domain.Product, consumer domain.Consumer, req domain.QuoteRequest) (domain.ProviderQuote, error)

	// InitiateEnrollment starts an enrollment for an issued quote.
	InitiateEnrollment(ctx context.Context, quote domain.Quote, consumer domain.Consumer, data map[string]any) (domain.Enrollment, error)

	// GetEnrollmentStatus returns domain.ErrNotFound for unknown enrollment ids.
	GetEnrollmentStatus(ctx context.Context, enrollmentID string) (domain.EnrollmentStatus, error)
}

// ProviderResolver looks providers up by ID. Unknown IDs yield a *domain.NotFoundError.
type ProviderResolver interface {
	Resolve(id string) (Provider, error)
}

// Invoker runs a provider call on behalf of a component, letting the caller decide
// on retries, deadlines and instrumentation.
type Invoker func(ctx context.Context, providerID, op string, call func(context.Context) error) error

// DirectInvoker calls the provider once, as is.
func DirectInvoker(ctx context.Context, providerID, op string, call func(context.Context) error) error {
	return call(ctx)
}
