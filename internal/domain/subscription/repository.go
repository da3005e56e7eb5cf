package subscription

import (
	"context"
	"time"

	"github.com/elevatehq/elevate-api/internal/types"
)

// Repository provides access to the subscriptions table.
type Repository interface {
	// Upsert writes the subscription atomically. Conflict resolution, in one
	// transaction: a row for the same (user, customer) pair under a different
	// provider subscription id is deleted first (trial->paid object
	// replacement); the write is then an insert-or-update keyed on the
	// provider subscription id, falling back to a targeted update on the
	// (user, customer) key if the insert still hits that unique constraint.
	Upsert(ctx context.Context, sub *Subscription) error

	// GetByProviderSubscriptionID returns (nil, nil) when no row exists.
	GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*Subscription, error)

	// GetLatestByUserID returns the user's most recently updated subscription,
	// or (nil, nil) when the user has none.
	GetLatestByUserID(ctx context.Context, userID string) (*Subscription, error)

	// UpdateStatus sets the status for the given provider subscription id,
	// and canceled_at when provided.
	UpdateStatus(ctx context.Context, providerSubscriptionID string, status types.SubscriptionStatus, canceledAt *time.Time) error
}
