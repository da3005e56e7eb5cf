package v1

import (
	"net/http"

	"github.com/elevatehq/elevate-api/internal/api/dto"
	"github.com/elevatehq/elevate-api/internal/domain/subscription"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subRepo subscription.Repository
	logger  *logger.Logger
}

func NewSubscriptionHandler(subRepo subscription.Repository, logger *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subRepo: subRepo, logger: logger}
}

// GetCurrent returns the authenticated user's latest subscription record.
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	ctx := c.Request.Context()

	userID := types.GetUserID(ctx)
	if userID == "" {
		c.Error(ierr.NewError("missing authenticated user").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	sub, err := h.subRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}
	if sub == nil {
		c.Error(ierr.NewError("no subscription found").
			WithHint("The user has no subscription on record").
			Mark(ierr.ErrNotFound))
		return
	}

	c.JSON(http.StatusOK, dto.NewSubscriptionResponse(sub))
}
