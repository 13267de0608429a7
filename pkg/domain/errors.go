package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrProvider      = errors.New("provider error")
	ErrWorkflow      = errors.New("workflow error")
)

// ConfigurationError reports a bad product or provider definition.
// It fails the offending item only and is never exposed to end consumers.
type ConfigurationError struct {
	Subject string // "product", "provider", "catalog"...
	ID      string
	Reason  string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Subject)
	if e.ID != "" {
		msg += fmt.Sprintf(" %q", e.ID)
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }
func (e *ConfigurationError) Unwrap() error        { return e.Cause }

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %v)", e.Field, e.Reason, e.Value)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown product, provider, workflow or enrollment id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ProviderError reports an integration failure.
// Retryable errors are eligible for a single bounded retry by the orchestration layer.
type ProviderError struct {
	ProviderID string
	Op         string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "provider %q", e.ProviderID)
	if e.Op != "" {
		fmt.Fprintf(&b, " %s", e.Op)
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Retryable {
		b.WriteString(" [retryable]")
	}
	return b.String()
}

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }
func (e *ProviderError) Unwrap() error        { return e.Cause }

// IsRetryable reports whether err carries a retryable ProviderError.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable
}

// WorkflowError reports an illegal state transition. It always indicates a caller or state bug.
type WorkflowError struct {
	WorkflowID string
	From       WorkflowStatus
	To         WorkflowStatus
	Reason     string
}

func (e *WorkflowError) Error() string {
	if e.To != "" {
		return fmt.Sprintf("workflow %q: illegal transition %s -> %s: %s", e.WorkflowID, e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("workflow %q in %s: %s", e.WorkflowID, e.From, e.Reason)
}

func (e *WorkflowError) Is(target error) bool { return target == ErrWorkflow }

// AggregateError collects independent failures, such as per-product load errors.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// Aggregate returns nil for no errors, and an *AggregateError otherwise.
func Aggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}

// Errors returns the collected errors if err is an AggregateError, or err itself otherwise.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return []error{err}
}

// ErrorKind classifies err into the taxonomy name recorded in StepError.Kind.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrProvider):
		return "provider"
	case errors.Is(err, ErrWorkflow):
		return "workflow"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrIneligible):
		return "ineligible"
	default:
		return "internal"
	}
}

// ErrIneligible is recorded when a consumer fails product or provider eligibility.
var ErrIneligible = errors.New("consumer is not eligible")

// IneligibleError carries the reasons a consumer was rejected for a product.
type IneligibleError struct {
	ProductID string
	Reasons   []string
}

func (e *IneligibleError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("consumer is not eligible for %q", e.ProductID)
	}
	return fmt.Sprintf("consumer is not eligible for %q: %s", e.ProductID, strings.Join(e.Reasons, "; "))
}

func (e *IneligibleError) Is(target error) bool { return target == ErrIneligible }
