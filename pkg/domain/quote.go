package domain

import "time"

// QuoteRequest asks a provider to price a product for a consumer.
type QuoteRequest struct {
	ProductID      string            `json:"product_id" mapstructure:"product_id"`
	ConsumerID     string            `json:"consumer_id" mapstructure:"consumer_id"`
	CoverageAmount float64           `json:"coverage_amount" mapstructure:"coverage_amount"`
	Dependents     int               `json:"dependents" mapstructure:"dependents"`
	EffectiveDate  *time.Time        `json:"effective_date,omitempty" mapstructure:"effective_date"`
	Options        map[string]string `json:"options,omitempty" mapstructure:"options"`
}

// ProviderQuote is the raw pricing answer of a provider, before canonicalization.
// Zero values mean "not set by the provider".
type ProviderQuote struct {
	QuoteID        string
	MonthlyPremium float64
	Deductible     float64
	CoverageAmount float64
	EffectiveDate  time.Time
	ExpirationDate time.Time
	Details        map[string]string
}

// Quote is the canonical, immutable priced offer.
type Quote struct {
	QuoteID        string            `json:"quote_id" mapstructure:"quote_id"`
	ProductID      string            `json:"product_id" mapstructure:"product_id"`
	ConsumerID     string            `json:"consumer_id" mapstructure:"consumer_id"`
	ProviderID     string            `json:"provider_id" mapstructure:"provider_id"`
	MonthlyPremium float64           `json:"monthly_premium" mapstructure:"monthly_premium"`
	Deductible     float64           `json:"deductible" mapstructure:"deductible"`
	CoverageAmount float64           `json:"coverage_amount" mapstructure:"coverage_amount"`
	EffectiveDate  time.Time         `json:"effective_date" mapstructure:"effective_date"`
	ExpirationDate time.Time         `json:"expiration_date" mapstructure:"expiration_date"`
	Details        map[string]string `json:"details,omitempty" mapstructure:"details"`
	CreatedAt      time.Time         `json:"created_at" mapstructure:"created_at"`
}

// Expired reports whether the quote is no longer valid at t.
func (q Quote) Expired(t time.Time) bool {
	return !q.ExpirationDate.IsZero() && t.After(q.ExpirationDate)
}

// Enrollment is the provider's answer to an enrollment initiation.
type Enrollment struct {
	EnrollmentID        string    `json:"enrollment_id"`
	ProviderID          string    `json:"provider_id"`
	QuoteID             string    `json:"quote_id"`
	Status              string    `json:"status"`
	NextSteps           []string  `json:"next_steps,omitempty"`
	EstimatedCompletion time.Time `json:"estimated_completion,omitempty"`
}

// EnrollmentStatus is a point-in-time view of an enrollment held by a provider.
type EnrollmentStatus struct {
	EnrollmentID string    `json:"enrollment_id"`
	Status       string    `json:"status"`
	Progress     float64   `json:"progress"`
	CurrentStep  string    `json:"current_step,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EligibilityResult is the combined product and provider eligibility answer.
type EligibilityResult struct {
	Eligible        bool             `json:"eligible"`
	Reasons         []string         `json:"reasons"`
	Disclaimers     []Disclaimer     `json:"disclaimers,omitempty"`
	EnrollmentSteps []EnrollmentStep `json:"enrollment_steps,omitempty"`
}

// EnrollmentInput carries what the caller supplies for the enrollment step.
// Acknowledgments name disclaimers by title or type.
type EnrollmentInput struct {
	Acknowledgments []string       `json:"acknowledgments,omitempty" mapstructure:"acknowledgments"`
	Data            map[string]any `json:"data,omitempty" mapstructure:"data"`
}

// WorkflowInput is what the caller supplies when advancing a workflow.
// Quote is used by the quote generation step, Enrollment by the enrollment step.
type WorkflowInput struct {
	Quote      QuoteRequest    `json:"quote" mapstructure:"quote"`
	Enrollment EnrollmentInput `json:"enrollment" mapstructure:"enrollment"`
}
