package domain_test

import (
	"testing"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	path := []domain.WorkflowStatus{domain.StatusInitiated}
	for {
		next, ok := domain.NextStatus(path[len(path)-1])
		if !ok {
			break
		}
		path = append(path, next)
	}

	assert.Equal(t, []domain.WorkflowStatus{
		domain.StatusInitiated,
		domain.StatusEligibilityCheck,
		domain.StatusQuoteGeneration,
		domain.StatusCrossSell,
		domain.StatusEnrollment,
		domain.StatusCompleted,
	}, path)

	_, ok := domain.NextStatus(domain.StatusFailed)
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to domain.WorkflowStatus
		want     bool
	}{
		{domain.StatusInitiated, domain.StatusEligibilityCheck, true},
		{domain.StatusEnrollment, domain.StatusCompleted, true},
		{domain.StatusQuoteGeneration, domain.StatusFailed, true},
		{domain.StatusInitiated, domain.StatusQuoteGeneration, false},
		{domain.StatusCrossSell, domain.StatusEligibilityCheck, false},
		{domain.StatusCompleted, domain.StatusFailed, false},
		{domain.StatusFailed, domain.StatusEnrollment, false},
		{domain.StatusFailed, domain.StatusInitiated, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanResume(t *testing.T) {
	assert.True(t, domain.CanResume(domain.StatusFailed, domain.StatusInitiated))
	assert.True(t, domain.CanResume(domain.StatusFailed, domain.StatusQuoteGeneration))
	assert.False(t, domain.CanResume(domain.StatusFailed, domain.StatusCompleted))
	assert.False(t, domain.CanResume(domain.StatusFailed, domain.StatusFailed))
	assert.False(t, domain.CanResume(domain.StatusEnrollment, domain.StatusInitiated))
}

func TestWorkflowStatus_Terminal(t *testing.T) {
	assert.True(t, domain.StatusCompleted.Terminal())
	assert.True(t, domain.StatusFailed.Terminal())
	assert.False(t, domain.StatusEnrollment.Terminal())
}
