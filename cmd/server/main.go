package main

import (
	"context"
	"net/http"
	"time"

	v1 "github.com/elevatehq/elevate-api/internal/api/v1"
	"github.com/elevatehq/elevate-api/internal/auth"
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
	repo "github.com/elevatehq/elevate-api/internal/repository/postgres"
	"github.com/elevatehq/elevate-api/internal/rest"
	"github.com/elevatehq/elevate-api/internal/service"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,
			postgres.NewDB,
			postgres.NewClient,
			cache.NewInMemoryCache,
			repo.NewSubscriptionRepository,
			repo.NewWebhookEventRepository,
			repo.NewPortfolioRepository,
			repo.NewUserRepository,
			stripe.NewClient,
			convertkit.NewClient,
			auth.NewSupabaseAuth,
			newServiceParams,
			service.NewPlanService,
			service.NewBillingService,
			v1.NewHealthHandler,
			v1.NewWebhookHandler,
			v1.NewSubscriptionHandler,
			v1.NewPortfolioHandler,
			v1.NewBillingEventsHandler,
			newHandlers,
			rest.NewRouter,
		),
		fx.Invoke(
			initSentry,
			autoMigrate,
			startServer,
		),
	)

	app.Run()
}

func newServiceParams(
	log *logger.Logger,
	cfg *config.Configuration,
	db postgres.IClient,
	c cache.Cache,
	subRepo subscription.Repository,
	eventRepo webhookevent.Repository,
	portfolioRepo portfolio.Repository,
	userRepo user.Repository,
	stripeClient stripe.Client,
	ck convertkit.Client,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:           log,
		Config:           cfg,
		DB:               db,
		Cache:            c,
		SubRepo:          subRepo,
		WebhookEventRepo: eventRepo,
		PortfolioRepo:    portfolioRepo,
		UserRepo:         userRepo,
		StripeClient:     stripeClient,
		ConvertKit:       ck,
	}
}

func newHandlers(
	health *v1.HealthHandler,
	webhook *v1.WebhookHandler,
	sub *v1.SubscriptionHandler,
	pf *v1.PortfolioHandler,
	events *v1.BillingEventsHandler,
) rest.Handlers {
	return rest.Handlers{
		Health:        health,
		Webhook:       webhook,
		Subscription:  sub,
		Portfolio:     pf,
		BillingEvents: events,
	}
}

func initSentry(cfg *config.Configuration, log *logger.Logger) error {
	if !cfg.Sentry.Enabled {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.Sentry.Environment,
		TracesSampleRate: cfg.Sentry.SampleRate,
	})
	if err != nil {
		log.Errorw("failed to initialize sentry", "error", err)
		return err
	}
	log.Infow("sentry initialized", "environment", cfg.Sentry.Environment)
	return nil
}

// autoMigrate creates or updates tables in dev setups. Production schemas are
// managed by migrations on the platform side.
func autoMigrate(cfg *config.Configuration, db *gorm.DB, log *logger.Logger) error {
	if !cfg.Postgres.AutoMigrate {
		return nil
	}
	log.Infow("running schema auto-migration")
	return db.AutoMigrate(
		&subscription.Subscription{},
		&webhookevent.WebhookEvent{},
		&portfolio.Portfolio{},
	)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *gin.Engine,
	billing service.BillingService,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting server", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalw("server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("shutting down server")
			// Let detached effects finish before the process exits.
			billing.WaitForBackground()
			if cfg.Sentry.Enabled {
				sentry.Flush(2 * time.Second)
			}
			return srv.Shutdown(ctx)
		},
	})
}
