package service

import (
	"github.com/elevatehq/elevate-api/internal/types"
)

// PlanService resolves provider price ids to internal plans.
type PlanService interface {
	// Resolve maps a provider price id to (plan, cadence). ok is false for
	// prices missing from the catalog; callers degrade to PlanTypeNone
	// rather than failing the sync.
	Resolve(priceID string, recurringInterval string) (types.PlanType, types.BillingCadence, bool)
}

type planService struct {
	ServiceParams
}

// NewPlanService creates a plan resolver backed by the configured price
// catalog.
func NewPlanService(params ServiceParams) PlanService {
	return &planService{ServiceParams: params}
}

func (s *planService) Resolve(priceID string, recurringInterval string) (types.PlanType, types.BillingCadence, bool) {
	entry, ok := s.Config.Stripe.Prices[priceID]
	if !ok {
		s.Logger.Warnw("price id not in plan catalog, defaulting plan",
			"price_id", priceID,
		)
		return types.PlanTypeNone, types.ParseBillingCadence(recurringInterval), false
	}

	cadence := entry.Cadence
	if cadence == "" {
		cadence = types.ParseBillingCadence(recurringInterval)
	}
	return entry.Plan, cadence, true
}
