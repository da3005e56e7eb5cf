package auth

import (
	"context"

	"github.com/elevatehq/elevate-api/internal/config"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/golang-jwt/jwt/v4"
	"github.com/nedpals/supabase-go"
)

type supabaseAuth struct {
	cfg    config.AuthConfig
	client *supabase.Client
	logger *logger.Logger
}

// NewSupabaseAuth creates a token validator backed by Supabase. When a JWT
// secret is configured, tokens are verified locally; otherwise each request
// round-trips to the Supabase user endpoint.
func NewSupabaseAuth(cfg *config.Configuration, log *logger.Logger) Provider {
	client := supabase.CreateClient(cfg.Auth.Supabase.BaseURL, cfg.Auth.Supabase.ServiceKey)
	return &supabaseAuth{
		cfg:    cfg.Auth,
		client: client,
		logger: log,
	}
}

func (s *supabaseAuth) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if s.cfg.Supabase.JWTSecret != "" {
		return s.validateLocal(token)
	}
	return s.validateRemote(ctx, token)
}

func (s *supabaseAuth) validateLocal(token string) (*Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithReportableDetails(map[string]interface{}{
					"signing_method": token.Method.Alg(),
				}).
				Mark(ierr.ErrPermissionDenied)
		}
		return []byte(s.cfg.Supabase.JWTSecret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Token parse error").
			Mark(ierr.ErrPermissionDenied)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok || !parsedToken.Valid {
		return nil, ierr.NewError("invalid token claims").
			Mark(ierr.ErrPermissionDenied)
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, ierr.NewError("token missing user ID").
			Mark(ierr.ErrPermissionDenied)
	}

	email, _ := claims["email"].(string)

	return &Claims{UserID: userID, Email: email}, nil
}

func (s *supabaseAuth) validateRemote(ctx context.Context, token string) (*Claims, error) {
	user, err := s.client.Auth.User(ctx, token)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to validate token with Supabase").
			Mark(ierr.ErrPermissionDenied)
	}

	return &Claims{UserID: user.ID, Email: user.Email}, nil
}
