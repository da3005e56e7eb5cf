package types

// PlanType is the internal product tier a subscription maps to.
type PlanType string

const (
	PlanTypeNone       PlanType = "none"
	PlanTypeLearn      PlanType = "learn"
	PlanTypeAccelerate PlanType = "accelerate"
)

// IsPaid reports whether the plan is a purchasable tier.
func (p PlanType) IsPaid() bool {
	return p == PlanTypeLearn || p == PlanTypeAccelerate
}

// BillingCadence is the recurrence period of a subscription charge.
type BillingCadence string

const (
	BillingCadenceMonthly BillingCadence = "monthly"
	BillingCadenceAnnual  BillingCadence = "annual"
)

// ParseBillingCadence maps a provider recurring interval to the local enum.
func ParseBillingCadence(interval string) BillingCadence {
	switch interval {
	case "year", "annual", "yearly":
		return BillingCadenceAnnual
	default:
		return BillingCadenceMonthly
	}
}

// PortfolioEligible reports whether a user on (plan, status) may keep a
// published portfolio. Only the accelerate tier includes portfolio hosting,
// and only while the subscription is entitled.
func PortfolioEligible(plan PlanType, status SubscriptionStatus) bool {
	return plan == PlanTypeAccelerate && status.IsEntitled()
}
