package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowState_CloneIsDeep(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := domain.NewWorkflowState("w", "c", "p", now)
	s.Quote = &domain.Quote{QuoteID: "q", Details: map[string]string{"network": "PPO"}}
	s.Enrollment = &domain.Enrollment{EnrollmentID: "e", NextSteps: []string{"pay"}}
	s.CrossSellCandidates = []string{"d"}
	s.History = append(s.History, domain.Transition{From: domain.StatusInitiated, To: domain.StatusEligibilityCheck, At: now})

	c := s.Clone()
	c.Quote.Details["network"] = "HMO"
	c.Enrollment.NextSteps[0] = "sign"
	c.CrossSellCandidates[0] = "v"
	c.History[0].Reason = "changed"

	assert.Equal(t, "PPO", s.Quote.Details["network"])
	assert.Equal(t, "pay", s.Enrollment.NextSteps[0])
	assert.Equal(t, "d", s.CrossSellCandidates[0])
	assert.Empty(t, s.History[0].Reason)

	var nilState *domain.WorkflowState
	assert.Nil(t, nilState.Clone())
}

func TestWorkflowState_Path(t *testing.T) {
	s := domain.NewWorkflowState("w", "c", "p", time.Now())
	assert.Equal(t, []domain.WorkflowStatus{domain.StatusInitiated}, s.Path())

	s.History = []domain.Transition{
		{From: domain.StatusInitiated, To: domain.StatusEligibilityCheck},
		{From: domain.StatusEligibilityCheck, To: domain.StatusFailed},
	}
	assert.Equal(t, []domain.WorkflowStatus{domain.StatusInitiated, domain.StatusEligibilityCheck, domain.StatusFailed}, s.Path())
}

func TestQuote_Expired(t *testing.T) {
	exp := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	q := domain.Quote{ExpirationDate: exp}
	assert.False(t, q.Expired(exp))
	assert.True(t, q.Expired(exp.Add(time.Second)))
	assert.False(t, domain.Quote{}.Expired(exp))
}

func TestConsumer_Attributes(t *testing.T) {
	c := domain.Consumer{
		ID:        "c-1",
		FirstName: "Ada",
		Email:     "ada@example.com",
		Profile:   map[string]any{"age": 36, "email": "profile@example.com", "spouse": nil},
	}

	v, ok := c.Lookup("first_name")
	require.True(t, ok)
	assert.Equal(t, "Ada", v)

	_, ok = c.Lookup("last_name")
	assert.False(t, ok)
	_, ok = c.Lookup("spouse")
	assert.False(t, ok)

	attrs := c.Attributes()
	assert.Equal(t, 36, attrs["age"])
	assert.Equal(t, "profile@example.com", attrs["email"])
	assert.Equal(t, "c-1", attrs["id"])
	assert.NotContains(t, attrs, "phone")
}

func TestProduct_Requirements(t *testing.T) {
	p := domain.Product{
		ID: "p",
		Disclaimers: []domain.Disclaimer{
			{Title: "Terms", RequiredAcknowledgment: true},
			{Title: "Newsletter"},
		},
		EnrollmentFlow: []domain.EnrollmentStep{
			{StepID: "a", RequiredFields: []string{"first_name", "email"}},
			{StepID: "b", RequiredFields: []string{"email", "payment_method"}},
		},
		Active: true,
	}

	required := p.RequiredDisclaimers()
	require.Len(t, required, 1)
	assert.Equal(t, "Terms", required[0].Title)
	assert.Equal(t, []string{"first_name", "email", "payment_method"}, p.RequiredFields())
	assert.Equal(t, domain.ProductSummary{ID: "p", Active: true}, p.Summary())
}

func TestProduct_CloneIsDeep(t *testing.T) {
	next := "b"
	p := domain.Product{
		ID: "p",
		EligibilityRules: []domain.EligibilityRule{{
			Name:       "r",
			Qualifiers: []domain.Qualifier{{Field: "state", Operator: domain.OpIn, Value: []any{"CA"}}},
		}},
		Disclaimers:       []domain.Disclaimer{{Title: "Terms"}},
		EnrollmentFlow:    []domain.EnrollmentStep{{StepID: "a", RequiredFields: []string{"email"}, NextStep: &next}, {StepID: "b"}},
		CrossSellProducts: []string{"d"},
		Metadata:          map[string]any{"tags": []any{"x"}},
	}

	c := p.Clone()
	c.EligibilityRules[0].Qualifiers[0].Value.([]any)[0] = "NY"
	c.Disclaimers[0].Title = "Other"
	c.EnrollmentFlow[0].RequiredFields[0] = "phone"
	*c.EnrollmentFlow[0].NextStep = "z"
	c.CrossSellProducts[0] = "e"
	c.Metadata["tags"].([]any)[0] = "y"

	assert.Equal(t, []any{"CA"}, p.EligibilityRules[0].Qualifiers[0].Value)
	assert.Equal(t, "Terms", p.Disclaimers[0].Title)
	assert.Equal(t, "email", p.EnrollmentFlow[0].RequiredFields[0])
	assert.Equal(t, "b", *p.EnrollmentFlow[0].NextStep)
	assert.Equal(t, []string{"d"}, p.CrossSellProducts)
	assert.Equal(t, []any{"x"}, p.Metadata["tags"])
	assert.Nil(t, domain.Product{}.Clone().Metadata)
}
