package v1

import (
	"net/http"

	"github.com/elevatehq/elevate-api/internal/api/dto"
	"github.com/elevatehq/elevate-api/internal/domain/portfolio"
	"github.com/elevatehq/elevate-api/internal/domain/subscription"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/types"
	"github.com/gin-gonic/gin"
)

type PortfolioHandler struct {
	portfolioRepo portfolio.Repository
	subRepo       subscription.Repository
	logger        *logger.Logger
}

func NewPortfolioHandler(
	portfolioRepo portfolio.Repository,
	subRepo subscription.Repository,
	logger *logger.Logger,
) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioRepo: portfolioRepo,
		subRepo:       subRepo,
		logger:        logger,
	}
}

// GetVisibility reports whether the authenticated user's portfolio may be
// published under their current subscription, alongside its current state.
func (h *PortfolioHandler) GetVisibility(c *gin.Context) {
	ctx := c.Request.Context()

	userID := types.GetUserID(ctx)
	if userID == "" {
		c.Error(ierr.NewError("missing authenticated user").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	plan := types.PlanTypeNone
	status := types.SubscriptionStatusCanceled
	sub, err := h.subRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}
	if sub != nil {
		plan = sub.Plan
		status = sub.Status
	}

	isPublished := false
	pf, err := h.portfolioRepo.GetByUserID(ctx, userID)
	if err != nil {
		c.Error(err)
		return
	}
	if pf != nil {
		isPublished = pf.IsPublished
	}

	c.JSON(http.StatusOK, &dto.PortfolioVisibilityResponse{
		Eligible:    types.PortfolioEligible(plan, status),
		IsPublished: isPublished,
		Plan:        plan,
		Status:      status,
	})
}
