package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.ValidationError{Field: "email", Reason: "required"}, "validation"},
		{&domain.NotFoundError{Kind: "product", ID: "p"}, "not_found"},
		{&domain.ProviderError{ProviderID: "acme", Message: "down"}, "provider"},
		{&domain.WorkflowError{WorkflowID: "w", From: domain.StatusCompleted, Reason: "terminal"}, "workflow"},
		{&domain.ConfigurationError{Subject: "product", Reason: "bad"}, "configuration"},
		{&domain.IneligibleError{ProductID: "p"}, "ineligible"},
		{fmt.Errorf("wrapped: %w", &domain.NotFoundError{Kind: "workflow", ID: "w"}), "not_found"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.ErrorKind(tt.err), tt.err.Error())
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `field "age": must be a number (got abc)`,
		(&domain.ValidationError{Field: "age", Reason: "must be a number", Value: "abc"}).Error())
	assert.Equal(t, `field "email": is required`,
		(&domain.ValidationError{Field: "email", Reason: "is required"}).Error())
	assert.Equal(t, `provider "acme" get_quote (status 503): busy [retryable]`,
		(&domain.ProviderError{ProviderID: "acme", Op: "get_quote", StatusCode: 503, Message: "busy", Retryable: true}).Error())
	assert.Equal(t, `workflow "w" in completed: terminal`,
		(&domain.WorkflowError{WorkflowID: "w", From: domain.StatusCompleted, Reason: "terminal"}).Error())
	assert.Equal(t, `workflow "w": illegal transition initiated -> completed: skip`,
		(&domain.WorkflowError{WorkflowID: "w", From: domain.StatusInitiated, To: domain.StatusCompleted, Reason: "skip"}).Error())
	assert.Equal(t, `consumer is not eligible for "p": too young; wrong state`,
		(&domain.IneligibleError{ProductID: "p", Reasons: []string{"too young", "wrong state"}}).Error())
}

func TestIsRetryable(t *testing.T) {
	retryable := &domain.ProviderError{ProviderID: "acme", Message: "busy", Retryable: true}
	assert.True(t, domain.IsRetryable(retryable))
	assert.True(t, domain.IsRetryable(fmt.Errorf("call: %w", retryable)))
	assert.False(t, domain.IsRetryable(&domain.ProviderError{ProviderID: "acme", Message: "bad"}))
	assert.False(t, domain.IsRetryable(errors.New("boom")))
}

func TestProviderError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &domain.ProviderError{ProviderID: "acme", Message: "unreachable", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, domain.ErrProvider)
}

func TestAggregate(t *testing.T) {
	assert.NoError(t, domain.Aggregate(nil))

	one := &domain.ConfigurationError{Subject: "product", ID: "a", Reason: "bad"}
	two := &domain.NotFoundError{Kind: "provider", ID: "b"}

	err := domain.Aggregate([]error{one})
	assert.Equal(t, one.Error(), err.Error())

	err = domain.Aggregate([]error{one, two})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "2 errors:")
	assert.Len(t, domain.Errors(err), 2)

	single := errors.New("alone")
	assert.Equal(t, []error{single}, domain.Errors(single))
	assert.Nil(t, domain.Errors(nil))
}
