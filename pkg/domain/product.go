package domain

// Qualifier is one atomic eligibility condition evaluated against a consumer profile.
type Qualifier struct {
	Name        string   `json:"name" yaml:"name" mapstructure:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Field       string   `json:"field" yaml:"field" mapstructure:"field"`
	Operator    Operator `json:"operator" yaml:"operator" mapstructure:"operator"`
	Value       any      `json:"value" yaml:"value" mapstructure:"value"`
}

// EligibilityRule is a named group of qualifiers combined by Logic.
type EligibilityRule struct {
	Name        string      `json:"name" yaml:"name" mapstructure:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Qualifiers  []Qualifier `json:"qualifiers" yaml:"qualifiers" mapstructure:"qualifiers"`
	Logic       Logic       `json:"logic,omitempty" yaml:"logic,omitempty" mapstructure:"logic"`
}

// Disclaimer is a compliance notice attached to a product.
type Disclaimer struct {
	Type                   string `json:"type" yaml:"type" mapstructure:"type"`
	Title                  string `json:"title" yaml:"title" mapstructure:"title"`
	Content                string `json:"content" yaml:"content" mapstructure:"content"`
	RequiredAcknowledgment bool   `json:"required_acknowledgment" yaml:"required_acknowledgment" mapstructure:"required_acknowledgment"`
	DisplayOrder           int    `json:"display_order" yaml:"display_order" mapstructure:"display_order"`
}

// EnrollmentStep is one link of a product's enrollment chain.
// A nil NextStep marks the terminal step.
type EnrollmentStep struct {
	StepID         string   `json:"step_id" yaml:"step_id" mapstructure:"step_id"`
	Name           string   `json:"name" yaml:"name" mapstructure:"name"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	RequiredFields []string `json:"required_fields,omitempty" yaml:"required_fields,omitempty" mapstructure:"required_fields"`
	OptionalFields []string `json:"optional_fields,omitempty" yaml:"optional_fields,omitempty" mapstructure:"optional_fields"`
	NextStep       *string  `json:"next_step" yaml:"next_step" mapstructure:"next_step"`
}

// Product is an insurance product definition owned by the catalog.
type Product struct {
	ID                string            `json:"id" yaml:"id" mapstructure:"id"`
	Name              string            `json:"name" yaml:"name" mapstructure:"name"`
	Category          Category          `json:"category" yaml:"category" mapstructure:"category"`
	ProviderID        string            `json:"provider_id" yaml:"provider_id" mapstructure:"provider_id"`
	Description       string            `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	EligibilityRules  []EligibilityRule `json:"eligibility_rules,omitempty" yaml:"eligibility_rules,omitempty" mapstructure:"eligibility_rules"`
	Disclaimers       []Disclaimer      `json:"disclaimers,omitempty" yaml:"disclaimers,omitempty" mapstructure:"disclaimers"`
	EnrollmentFlow    []EnrollmentStep  `json:"enrollment_flow,omitempty" yaml:"enrollment_flow,omitempty" mapstructure:"enrollment_flow"`
	CrossSellProducts []string          `json:"cross_sell_products,omitempty" yaml:"cross_sell_products,omitempty" mapstructure:"cross_sell_products"`
	Metadata          map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
	Active            bool              `json:"active" yaml:"active" mapstructure:"active"`
}

// Clone returns a deep copy of the product. Rule values and metadata are copied
// recursively through nested slices and maps.
func (p Product) Clone() Product {
	next := p
	if p.EligibilityRules != nil {
		next.EligibilityRules = make([]EligibilityRule, len(p.EligibilityRules))
		for i, r := range p.EligibilityRules {
			if r.Qualifiers != nil {
				qs := make([]Qualifier, len(r.Qualifiers))
				for j, q := range r.Qualifiers {
					q.Value = cloneValue(q.Value)
					qs[j] = q
				}
				r.Qualifiers = qs
			}
			next.EligibilityRules[i] = r
		}
	}
	if p.Disclaimers != nil {
		next.Disclaimers = append([]Disclaimer{}, p.Disclaimers...)
	}
	if p.EnrollmentFlow != nil {
		next.EnrollmentFlow = make([]EnrollmentStep, len(p.EnrollmentFlow))
		for i, step := range p.EnrollmentFlow {
			if step.RequiredFields != nil {
				step.RequiredFields = append([]string{}, step.RequiredFields...)
			}
			if step.OptionalFields != nil {
				step.OptionalFields = append([]string{}, step.OptionalFields...)
			}
			if step.NextStep != nil {
				n := *step.NextStep
				step.NextStep = &n
			}
			next.EnrollmentFlow[i] = step
		}
	}
	if p.CrossSellProducts != nil {
		next.CrossSellProducts = append([]string{}, p.CrossSellProducts...)
	}
	if p.Metadata != nil {
		next.Metadata = cloneValue(p.Metadata).(map[string]any)
	}
	return next
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string{}, t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// RequiredDisclaimers returns the disclaimers that must be acknowledged before enrollment.
func (p Product) RequiredDisclaimers() []Disclaimer {
	var out []Disclaimer
	for _, d := range p.Disclaimers {
		if d.RequiredAcknowledgment {
			out = append(out, d)
		}
	}
	return out
}

// RequiredFields returns the union of required fields across the enrollment flow,
// in chain order and without duplicates.
func (p Product) RequiredFields() []string {
	seen := make(map[string]bool)
	var out []string
	for _, step := range p.EnrollmentFlow {
		for _, f := range step.RequiredFields {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// ProductSummary is the compact projection returned by catalog searches.
type ProductSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	ProviderID  string   `json:"provider_id"`
	Description string   `json:"description,omitempty"`
	Active      bool     `json:"active"`
}

// Summary projects the product into a ProductSummary.
func (p Product) Summary() ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		ProviderID:  p.ProviderID,
		Description: p.Description,
		Active:      p.Active,
	}
}
