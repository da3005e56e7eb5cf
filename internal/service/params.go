package service

import (
	"github.com/elevatehq/elevate-api/internal/cache"
	"github.com/elevatehq/elevate-api/internal/config"
	"github.com/elevatehq/elevate-api/internal/domain/portfolio"
	"github.com/elevatehq/elevate-api/internal/domain/subscription"
	"github.com/elevatehq/elevate-api/internal/domain/user"
	"github.com/elevatehq/elevate-api/internal/domain/webhookevent"
	"github.com/elevatehq/elevate-api/internal/integration/convertkit"
	"github.com/elevatehq/elevate-api/internal/integration/stripe"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/postgres"
)

// ServiceParams bundles common dependencies for services.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache

	SubRepo          subscription.Repository
	WebhookEventRepo webhookevent.Repository
	PortfolioRepo    portfolio.Repository
	UserRepo         user.Repository

	StripeClient stripe.Client
	ConvertKit   convertkit.Client
}
