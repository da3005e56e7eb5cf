package dto

import "github.com/elevatehq/elevate-api/internal/types"

// PortfolioVisibilityResponse reports whether a user's portfolio may be
// published under their current subscription.
type PortfolioVisibilityResponse struct {
	Eligible    bool                     `json:"eligible"`
	IsPublished bool                     `json:"is_published"`
	Plan        types.PlanType           `json:"plan"`
	Status      types.SubscriptionStatus `json:"status"`
}
