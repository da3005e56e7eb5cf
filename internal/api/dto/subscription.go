package dto

import (
	"time"

	"github.com/elevatehq/elevate-api/internal/domain/subscription"
	"github.com/elevatehq/elevate-api/internal/types"
)

// SubscriptionResponse is the public shape of a user's subscription state.
type SubscriptionResponse struct {
	ID                 string                   `json:"id"`
	Plan               types.PlanType           `json:"plan"`
	BillingCadence     types.BillingCadence     `json:"billing_cadence"`
	Status             types.SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   time.Time                `json:"current_period_end"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	CanceledAt         *time.Time               `json:"canceled_at,omitempty"`
	TrialStart         *time.Time               `json:"trial_start,omitempty"`
	TrialEnd           *time.Time               `json:"trial_end,omitempty"`
	Entitled           bool                     `json:"entitled"`
}

// NewSubscriptionResponse converts a subscription record to its API shape.
func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:                 sub.ID,
		Plan:               sub.Plan,
		BillingCadence:     sub.BillingCadence,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CanceledAt:         sub.CanceledAt,
		TrialStart:         sub.TrialStart,
		TrialEnd:           sub.TrialEnd,
		Entitled:           sub.Status.IsEntitled(),
	}
}
