package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSubscriptionStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected SubscriptionStatus
	}{
		{"active", SubscriptionStatusActive},
		{"trialing", SubscriptionStatusTrialing},
		{"past_due", SubscriptionStatusPastDue},
		{"canceled", SubscriptionStatusCanceled},
		{"unpaid", SubscriptionStatusUnpaid},
		{"paused", SubscriptionStatusPaused},
		{"incomplete", SubscriptionStatusIncomplete},
		{"incomplete_expired", SubscriptionStatusIncompleteExpired},
		// Unknown provider statuses degrade to incomplete rather than failing
		// the sync.
		{"some_future_status", SubscriptionStatusIncomplete},
		{"", SubscriptionStatusIncomplete},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseSubscriptionStatus(tc.input))
		})
	}
}

func TestIsEntitled(t *testing.T) {
	assert.True(t, SubscriptionStatusActive.IsEntitled())
	assert.True(t, SubscriptionStatusTrialing.IsEntitled())

	assert.False(t, SubscriptionStatusPastDue.IsEntitled())
	assert.False(t, SubscriptionStatusCanceled.IsEntitled())
	assert.False(t, SubscriptionStatusUnpaid.IsEntitled())
	assert.False(t, SubscriptionStatusPaused.IsEntitled())
	assert.False(t, SubscriptionStatusIncomplete.IsEntitled())
	assert.False(t, SubscriptionStatusIncompleteExpired.IsEntitled())
}

func TestDeriveCancelAtPeriodEnd(t *testing.T) {
	periodEnd := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("native flag wins", func(t *testing.T) {
		assert.True(t, DeriveCancelAtPeriodEnd(true, nil, periodEnd))
	})

	t.Run("no flag no cancel_at", func(t *testing.T) {
		assert.False(t, DeriveCancelAtPeriodEnd(false, nil, periodEnd))
	})

	t.Run("cancel_at within window of period end", func(t *testing.T) {
		cancelAt := periodEnd.Add(-12 * time.Hour)
		assert.True(t, DeriveCancelAtPeriodEnd(false, &cancelAt, periodEnd))

		cancelAt = periodEnd.Add(12 * time.Hour)
		assert.True(t, DeriveCancelAtPeriodEnd(false, &cancelAt, periodEnd))
	})

	t.Run("window boundary is inclusive", func(t *testing.T) {
		cancelAt := periodEnd.Add(-CancelAtPeriodEndWindow)
		assert.True(t, DeriveCancelAtPeriodEnd(false, &cancelAt, periodEnd))

		cancelAt = periodEnd.Add(CancelAtPeriodEndWindow)
		assert.True(t, DeriveCancelAtPeriodEnd(false, &cancelAt, periodEnd))
	})

	t.Run("cancel_at outside window", func(t *testing.T) {
		cancelAt := periodEnd.Add(-CancelAtPeriodEndWindow - time.Second)
		assert.False(t, DeriveCancelAtPeriodEnd(false, &cancelAt, periodEnd))

		cancelAt = periodEnd.Add(CancelAtPeriodEndWindow + time.Second)
		assert.False(t, DeriveCancelAtPeriodEnd(false, &cancelAt, periodEnd))
	})
}

func TestPortfolioEligible(t *testing.T) {
	assert.True(t, PortfolioEligible(PlanTypeAccelerate, SubscriptionStatusActive))
	assert.True(t, PortfolioEligible(PlanTypeAccelerate, SubscriptionStatusTrialing))

	assert.False(t, PortfolioEligible(PlanTypeAccelerate, SubscriptionStatusPastDue))
	assert.False(t, PortfolioEligible(PlanTypeAccelerate, SubscriptionStatusCanceled))
	assert.False(t, PortfolioEligible(PlanTypeLearn, SubscriptionStatusActive))
	assert.False(t, PortfolioEligible(PlanTypeNone, SubscriptionStatusActive))
}
