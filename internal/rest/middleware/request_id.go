package middleware

import (
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/gin-gonic/gin"
)

// RequestIDMiddleware assigns every request an id and echoes it back in the
// response. Inbound ids are honored so callers can correlate across services.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(types.HeaderRequestID)
	if requestID == "" {
		requestID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REQUEST)
	}

	ctx := types.SetRequestID(c.Request.Context(), requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Writer.Header().Set(types.HeaderRequestID, requestID)
	c.Next()
}
