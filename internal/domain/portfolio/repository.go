package portfolio

import "context"

// Repository provides access to the portfolios table.
type Repository interface {
	// GetByUserID returns (nil, nil) when the user has no portfolio.
	GetByUserID(ctx context.Context, userID string) (*Portfolio, error)

	// SetPublished flips the publish flag for the user's portfolio.
	SetPublished(ctx context.Context, userID string, published bool) error
}
