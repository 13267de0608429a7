package catalog

import (
	"fmt"
	"strings"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/aretw0/enroll/pkg/eligibility"
)

// Validate checks a product definition and reports every problem in one ConfigurationError.
func Validate(p domain.Product) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if p.ID == "" {
		add("id is required")
	}
	if p.Name == "" {
		add("name is required")
	}
	if p.ProviderID == "" {
		add("provider_id is required")
	}
	if !p.Category.Valid() {
		add("unknown category %q", p.Category)
	}

	for _, rule := range p.EligibilityRules {
		if err := eligibility.ValidateRule(rule); err != nil {
			add("%v", err)
		}
	}

	if err := validateFlow(p.EnrollmentFlow); err != nil {
		add("enrollment_flow: %v", err)
	}

	if len(problems) == 0 {
		return nil
	}
	return &domain.ConfigurationError{Subject: "product", ID: p.ID, Reason: strings.Join(problems, "; ")}
}

// validateFlow requires the steps to form one acyclic chain that starts at the
// first step, visits every step and ends at a step without next_step.
func validateFlow(steps []domain.EnrollmentStep) error {
	if len(steps) == 0 {
		return nil
	}

	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if s.StepID == "" {
			return fmt.Errorf("step %d has no step_id", i)
		}
		if _, dup := index[s.StepID]; dup {
			return fmt.Errorf("duplicate step_id %q", s.StepID)
		}
		index[s.StepID] = i
	}

	for _, s := range steps {
		if s.NextStep == nil {
			continue
		}
		if *s.NextStep == s.StepID {
			return fmt.Errorf("step %q references itself", s.StepID)
		}
		if _, ok := index[*s.NextStep]; !ok {
			return fmt.Errorf("step %q points to unknown step %q", s.StepID, *s.NextStep)
		}
	}

	// Any walk longer than the number of steps has revisited one.
	for _, s := range steps {
		current := s
		for hops := 0; current.NextStep != nil; hops++ {
			if hops >= len(steps) {
				return fmt.Errorf("cycle through step %q", s.StepID)
			}
			current = steps[index[*current.NextStep]]
		}
	}

	visited := 0
	for current := &steps[0]; ; {
		visited++
		if current.NextStep == nil {
			break
		}
		current = &steps[index[*current.NextStep]]
	}
	if visited != len(steps) {
		return fmt.Errorf("%d of %d steps are not reachable from %q", len(steps)-visited, len(steps), steps[0].StepID)
	}
	return nil
}
