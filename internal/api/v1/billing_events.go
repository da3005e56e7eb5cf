package v1

import (
	"net/http"
	"strconv"

	"github.com/elevatehq/elevate-api/internal/api/dto"
	"github.com/elevatehq/elevate-api/internal/domain/webhookevent"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/gin-gonic/gin"
)

type BillingEventsHandler struct {
	eventRepo webhookevent.Repository
	logger    *logger.Logger
}

func NewBillingEventsHandler(eventRepo webhookevent.Repository, logger *logger.Logger) *BillingEventsHandler {
	return &BillingEventsHandler{eventRepo: eventRepo, logger: logger}
}

// List returns recent webhook audit rows, newest first. Used for operational
// debugging of delivery and processing failures.
func (h *BillingEventsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil {
			limit = parsed
		}
	}

	events, err := h.eventRepo.List(ctx, limit)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListWebhookEventsResponse(events))
}
