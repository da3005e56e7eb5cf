package middleware

import (
	"time"

	"github.com/elevatehq/elevate-api/internal/config"
	"github.com/elevatehq/elevate-api/internal/types"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryMiddleware returns a middleware that captures errors and performance data
func SentryMiddleware(cfg *config.Configuration) gin.HandlerFunc {
	if !cfg.Sentry.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// SentryUserContextMiddleware tags the Sentry scope with the authenticated
// user when one is present. Add after AuthMiddleware on private routes.
func SentryUserContextMiddleware(c *gin.Context) {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		c.Next()
		return
	}
	if userID := types.GetUserID(c.Request.Context()); userID != "" {
		hub.Scope().SetTag("user_id", userID)
	}
	c.Next()
}
