package subscription

import (
	"time"

	"github.com/elevatehq/elevate-api/internal/types"
)

// Subscription is the canonical billing state for one user. Exactly one row
// per (user_id, provider_customer_id) pair is authoritative at any time; a new
// provider subscription id arriving for the same pair replaces the prior row.
type Subscription struct {
	ID                     string                   `gorm:"primaryKey;size:50" json:"id"`
	UserID                 string                   `gorm:"size:64;not null;index:ux_subscriptions_user_customer,unique,priority:1" json:"user_id"`
	ProviderCustomerID     string                   `gorm:"size:191;not null;index:ux_subscriptions_user_customer,unique,priority:2" json:"provider_customer_id"`
	ProviderSubscriptionID string                   `gorm:"size:191;not null;uniqueIndex:ux_subscriptions_provider_sub" json:"provider_subscription_id"`
	Plan                   types.PlanType           `gorm:"size:50;not null;default:'none'" json:"plan"`
	BillingCadence         types.BillingCadence     `gorm:"size:16;not null;default:'monthly'" json:"billing_cadence"`
	Status                 types.SubscriptionStatus `gorm:"size:32;not null;index" json:"status"`
	CurrentPeriodStart     time.Time                `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd       time.Time                `gorm:"not null" json:"current_period_end"`
	CancelAtPeriodEnd      bool                     `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt             *time.Time               `json:"canceled_at,omitempty"`
	TrialStart             *time.Time               `json:"trial_start,omitempty"`
	TrialEnd               *time.Time               `json:"trial_end,omitempty"`
	ProviderPriceID        string                   `gorm:"size:191" json:"provider_price_id"`
	CreatedAt              time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time                `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
