package eligibility

import (
	"fmt"

	"github.com/aretw0/enroll/pkg/domain"
)

// ValidateQualifier checks a qualifier at load time.
func ValidateQualifier(q domain.Qualifier) error {
	if q.Field == "" {
		return &domain.ConfigurationError{Subject: "qualifier", ID: q.Name, Reason: "field is required"}
	}
	if !q.Operator.Valid() {
		return &domain.ConfigurationError{
			Subject: "qualifier",
			ID:      q.Name,
			Reason:  fmt.Sprintf("unknown operator %q", q.Operator),
		}
	}
	if q.Operator == domain.OpIn || q.Operator == domain.OpNotIn {
		if _, ok := asSlice(q.Value); !ok {
			return &domain.ConfigurationError{
				Subject: "qualifier",
				ID:      q.Name,
				Reason:  fmt.Sprintf("operator %q requires a list value", q.Operator),
			}
		}
	}
	return nil
}

// ValidateRule checks the rule logic and every qualifier, returning the first problem found.
func ValidateRule(rule domain.EligibilityRule) error {
	if rule.Name == "" {
		return &domain.ConfigurationError{Subject: "rule", Reason: "name is required"}
	}
	switch rule.Logic {
	case "", domain.LogicAll, domain.LogicAny:
	default:
		return &domain.ConfigurationError{
			Subject: "rule",
			ID:      rule.Name,
			Reason:  fmt.Sprintf("unknown logic %q", rule.Logic),
		}
	}
	for i, q := range rule.Qualifiers {
		if err := ValidateQualifier(q); err != nil {
			return &domain.ConfigurationError{
				Subject: "rule",
				ID:      rule.Name,
				Reason:  fmt.Sprintf("qualifier %d", i),
				Cause:   err,
			}
		}
	}
	return nil
}
