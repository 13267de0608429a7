package eligibility

import (
	"fmt"

	"github.com/aretw0/enroll/pkg/domain"
)

// RuleResult is the outcome of one eligibility rule.
type RuleResult struct {
	Rule   string   `json:"rule"`
	Passed bool     `json:"passed"`
	Failed []string `json:"failed_qualifiers,omitempty"`
	Reason string   `json:"reason,omitempty"`
}

// Evaluation is the detailed outcome of Check.
type Evaluation struct {
	Eligible bool         `json:"eligible"`
	Reasons  []string     `json:"reasons"`
	Rules    []RuleResult `json:"rules"`
}

// Check evaluates every rule of the product, in order, and returns the overall
// verdict plus one reason per failed rule.
func Check(product *domain.Product, attrs map[string]any) (bool, []string) {
	ev := CheckDetailed(product, attrs)
	return ev.Eligible, ev.Reasons
}

// CheckDetailed is Check with per-rule results. Rules never short-circuit each
// other so the caller sees every failing rule.
func CheckDetailed(product *domain.Product, attrs map[string]any) Evaluation {
	ev := Evaluation{Eligible: true, Reasons: []string{}}
	if product == nil {
		return ev
	}

	for _, rule := range product.EligibilityRules {
		res := EvaluateRule(rule, attrs)
		ev.Rules = append(ev.Rules, res)
		if !res.Passed {
			ev.Eligible = false
			ev.Reasons = append(ev.Reasons, res.Reason)
		}
	}
	return ev
}

// EvaluateRule applies the rule's logic to its qualifiers.
// An "any" rule with no qualifiers fails; an "all" rule with none passes.
func EvaluateRule(rule domain.EligibilityRule, attrs map[string]any) RuleResult {
	res := RuleResult{Rule: rule.Name}

	passed := 0
	for _, q := range rule.Qualifiers {
		if Evaluate(q, attrs) {
			passed++
			continue
		}
		res.Failed = append(res.Failed, q.Name)
	}

	switch rule.Logic {
	case domain.LogicAny:
		res.Passed = passed > 0
	default:
		res.Passed = passed == len(rule.Qualifiers)
	}

	if !res.Passed {
		res.Reason = FailureReason(rule)
	}
	return res
}

// FailureReason is the human readable reason recorded for a failed rule.
func FailureReason(rule domain.EligibilityRule) string {
	if rule.Description != "" {
		return rule.Description
	}
	return fmt.Sprintf("%s failed", rule.Name)
}
