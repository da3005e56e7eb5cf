package middleware

import (
	"net/http"
	"strings"

	"github.com/elevatehq/elevate-api/internal/auth"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token on private routes and stores the
// authenticated user on the request context.
func AuthMiddleware(provider auth.Provider, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(types.HeaderAuthorization)
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				ierr.NewErrorResponse(ierr.NewError("missing or malformed authorization header").
					Mark(ierr.ErrPermissionDenied)))
			return
		}

		claims, err := provider.ValidateToken(c.Request.Context(), token)
		if err != nil {
			log.WithContext(c.Request.Context()).Warnw("rejected invalid access token",
				"error", err,
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ierr.NewErrorResponse(err))
			return
		}

		ctx := types.SetUserID(c.Request.Context(), claims.UserID)
		ctx = types.SetUserEmail(ctx, claims.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
