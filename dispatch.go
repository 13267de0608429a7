package enroll

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/enroll/pkg/catalog"
	"github.com/aretw0/enroll/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Operation names accepted by Dispatch.
const (
	OpSearch              = "search"
	OpCheckEligibility    = "check_eligibility"
	OpGenerateQuote       = "generate_quote"
	OpGetCrossSell        = "get_cross_sell"
	OpInitiateEnrollment  = "initiate_enrollment"
	OpGetEnrollmentStatus = "get_enrollment_status"
)

// Operations lists every operation accepted by Dispatch.
var Operations = []string{
	OpSearch, OpCheckEligibility, OpGenerateQuote, OpGetCrossSell, OpInitiateEnrollment, OpGetEnrollmentStatus,
}

// Request is the consumer-facing request shape.
type Request struct {
	Operation string          `json:"operation" mapstructure:"operation"`
	ProductID string          `json:"product_id,omitempty" mapstructure:"product_id"`
	Consumer  domain.Consumer `json:"consumer" mapstructure:"consumer"`
	Params    map[string]any  `json:"params,omitempty" mapstructure:"params"`
}

// SearchParams filters a search. ActiveOnly defaults to true.
type SearchParams struct {
	Category   domain.Category `mapstructure:"category"`
	ProviderID string          `mapstructure:"provider_id"`
	ActiveOnly *bool           `mapstructure:"active_only"`
}

// EnrollmentParams carries the quote being accepted and the enrollment input.
type EnrollmentParams struct {
	Quote           domain.Quote   `mapstructure:"quote"`
	Acknowledgments []string       `mapstructure:"acknowledgments"`
	Data            map[string]any `mapstructure:"data"`
}

// StatusParams names an enrollment held by a provider.
type StatusParams struct {
	ProviderID   string `mapstructure:"provider_id"`
	EnrollmentID string `mapstructure:"enrollment_id"`
}

// Dispatch routes a tagged request to the matching operation.
// Params are decoded strictly: unknown keys are a ValidationError.
func (e *Engine) Dispatch(ctx context.Context, req Request) (any, error) {
	switch req.Operation {
	case OpSearch:
		var p SearchParams
		if err := DecodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		f := catalog.Filter{Category: p.Category, ProviderID: p.ProviderID, ActiveOnly: true}
		if p.ActiveOnly != nil {
			f.ActiveOnly = *p.ActiveOnly
		}
		return e.Search(f), nil

	case OpCheckEligibility:
		if err := DecodeParams(req.Params, &struct{}{}); err != nil {
			return nil, err
		}
		return e.CheckEligibility(ctx, req.ProductID, req.Consumer)

	case OpGenerateQuote:
		var q domain.QuoteRequest
		if err := DecodeParams(req.Params, &q); err != nil {
			return nil, err
		}
		return e.GenerateQuote(ctx, req.ProductID, req.Consumer, q)

	case OpGetCrossSell:
		if req.ProductID == "" {
			return nil, &domain.ValidationError{Field: "product_id", Reason: "is required"}
		}
		return e.CrossSell(req.ProductID)

	case OpInitiateEnrollment:
		var p EnrollmentParams
		if err := DecodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		if req.ProductID != "" && p.Quote.ProductID != "" && req.ProductID != p.Quote.ProductID {
			return nil, &domain.ValidationError{Field: "product_id", Reason: "does not match the quote", Value: req.ProductID}
		}
		if p.Quote.ProductID == "" {
			p.Quote.ProductID = req.ProductID
		}
		return e.InitiateEnrollment(ctx, req.Consumer, p.Quote, domain.EnrollmentInput{
			Acknowledgments: p.Acknowledgments,
			Data:            p.Data,
		})

	case OpGetEnrollmentStatus:
		var p StatusParams
		if err := DecodeParams(req.Params, &p); err != nil {
			return nil, err
		}
		if p.ProviderID == "" && req.ProductID != "" {
			product, err := e.catalog.Get(req.ProductID)
			if err != nil {
				return nil, err
			}
			p.ProviderID = product.ProviderID
		}
		if p.ProviderID == "" {
			return nil, &domain.ValidationError{Field: "provider_id", Reason: "is required"}
		}
		return e.EnrollmentStatus(ctx, p.ProviderID, p.EnrollmentID)

	default:
		return nil, &domain.ValidationError{Field: "operation", Reason: fmt.Sprintf("must be one of %v", Operations), Value: req.Operation}
	}
}

// DecodeParams decodes loosely typed params (decoded JSON or YAML) into target.
// Timestamps are RFC 3339 strings.
func DecodeParams(params map[string]any, target any) error {
	if len(params) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      target,
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return &domain.ValidationError{Field: "params", Reason: err.Error()}
	}
	return nil
}
