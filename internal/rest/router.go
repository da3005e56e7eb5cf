package rest

import (
	v1 "github.com/elevatehq/elevate-api/internal/api/v1"
	"github.com/elevatehq/elevate-api/internal/auth"
	"github.com/elevatehq/elevate-api/internal/config"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/rest/middleware"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the route handlers wired into the router.
type Handlers struct {
	Health        *v1.HealthHandler
	Webhook       *v1.WebhookHandler
	Subscription  *v1.SubscriptionHandler
	Portfolio     *v1.PortfolioHandler
	BillingEvents *v1.BillingEventsHandler
}

// NewRouter builds the HTTP router. The webhook route stays outside the auth
// group: the provider authenticates with its signature header, not a bearer
// token.
func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	log *logger.Logger,
	authProvider auth.Provider,
) *gin.Engine {
	if cfg.Deployment.Mode == types.RunModeProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	router.POST("/webhooks/stripe", handlers.Webhook.HandleStripeWebhook)

	private := router.Group("/v1")
	private.Use(
		middleware.AuthMiddleware(authProvider, log),
		middleware.SentryUserContextMiddleware,
	)
	private.GET("/subscriptions/current", handlers.Subscription.GetCurrent)
	private.GET("/portfolio/visibility", handlers.Portfolio.GetVisibility)
	private.GET("/billing/events", handlers.BillingEvents.List)

	return router
}
