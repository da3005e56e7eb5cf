package auth

import "context"

// Claims is the identity extracted from a validated access token.
type Claims struct {
	UserID string
	Email  string
}

// Provider validates access tokens issued by the identity provider.
type Provider interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}
