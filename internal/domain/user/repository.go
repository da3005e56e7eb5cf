package user

import "context"

// Repository provides read access to user profiles.
type Repository interface {
	// GetByID returns (nil, nil) when the profile does not exist.
	GetByID(ctx context.Context, id string) (*Profile, error)
}
