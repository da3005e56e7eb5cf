package middleware

import (
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/gin-gonic/gin"
)

// ErrorHandler converts errors attached via c.Error into the standard JSON
// error shape. Handlers that write their own status (the webhook endpoint)
// are unaffected.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
	}
}
