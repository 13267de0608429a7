package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/enroll/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWorkflowStoreContract runs a suite of tests to verify that a WorkflowStore implementation
// adheres to the defined interface contract.
func RunWorkflowStoreContract(t *testing.T, store WorkflowStore) {
	ctx := context.Background()
	workflowID := "contract-test-workflow-" + time.Now().Format("20060102150405")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewWorkflowState(workflowID, "c-1", "p-1", now)
		state.Current = domain.StatusCrossSell
		state.Quote = &domain.Quote{QuoteID: "q-1", MonthlyPremium: 120.5, Details: map[string]string{"network": "PPO"}}
		state.CrossSellCandidates = []string{"p-2"}

		require.NoError(t, store.Save(ctx, state), "Save should not return error")

		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, domain.StatusCrossSell, loaded.Current)
		assert.Equal(t, "c-1", loaded.ConsumerID)
		require.NotNil(t, loaded.Quote)
		assert.Equal(t, "q-1", loaded.Quote.QuoteID)
		assert.Equal(t, []string{"p-2"}, loaded.CrossSellCandidates)
	})

	t.Run("Isolation", func(t *testing.T) {
		state := domain.NewWorkflowState(workflowID, "c-1", "p-1", now)
		require.NoError(t, store.Save(ctx, state))

		// Mutating either copy must not leak into the store.
		state.Current = domain.StatusFailed
		loaded, err := store.Load(ctx, workflowID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInitiated, loaded.Current)

		loaded.History = append(loaded.History, domain.Transition{From: domain.StatusInitiated, To: domain.StatusFailed})
		again, err := store.Load(ctx, workflowID)
		require.NoError(t, err)
		assert.Empty(t, again.History)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+workflowID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewWorkflowState(workflowID, "c-1", "p-1", now)))
		require.NoError(t, store.Delete(ctx, workflowID), "Delete should not return error")

		_, err := store.Load(ctx, workflowID)
		assert.ErrorIs(t, err, domain.ErrNotFound, "Load after Delete should return NotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := workflowID + "-1"
		id2 := workflowID + "-2"
		_ = store.Save(ctx, domain.NewWorkflowState(id1, "c-1", "p-1", now))
		_ = store.Save(ctx, domain.NewWorkflowState(id2, "c-2", "p-1", now))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunProviderContract verifies the happy path of a Provider against a product and an
// eligible consumer, plus the not-found behaviour of status lookups.
func RunProviderContract(t *testing.T, p Provider, product domain.Product, consumer domain.Consumer) {
	ctx := context.Background()

	t.Run("ID", func(t *testing.T) {
		assert.NotEmpty(t, p.ID())
	})

	t.Run("CheckEligibility", func(t *testing.T) {
		res, err := p.CheckEligibility(ctx, product, consumer)
		require.NoError(t, err)
		assert.True(t, res.Eligible, "reasons: %v", res.Reasons)
	})

	var quote domain.Quote
	t.Run("GetQuote", func(t *testing.T) {
		req := domain.QuoteRequest{ProductID: product.ID, ConsumerID: consumer.ID, CoverageAmount: 50000}
		pq, err := p.GetQuote(ctx, product, consumer, req)
		require.NoError(t, err)
		assert.Greater(t, pq.MonthlyPremium, 0.0)

		quote = domain.Quote{
			QuoteID:        pq.QuoteID,
			ProductID:      product.ID,
			ConsumerID:     consumer.ID,
			ProviderID:     p.ID(),
			MonthlyPremium: pq.MonthlyPremium,
			CoverageAmount: req.CoverageAmount,
		}
		if quote.QuoteID == "" {
			quote.QuoteID = "contract-quote"
		}
	})

	t.Run("Enrollment", func(t *testing.T) {
		enr, err := p.InitiateEnrollment(ctx, quote, consumer, map[string]any{"payment_method": "card"})
		require.NoError(t, err)
		require.NotEmpty(t, enr.EnrollmentID)
		assert.NotEmpty(t, enr.Status)

		status, err := p.GetEnrollmentStatus(ctx, enr.EnrollmentID)
		require.NoError(t, err)
		assert.Equal(t, enr.EnrollmentID, status.EnrollmentID)
	})

	t.Run("Unknown Enrollment", func(t *testing.T) {
		_, err := p.GetEnrollmentStatus(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
