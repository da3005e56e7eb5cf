package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	domainPortfolio "github.com/elevatehq/elevate-api/internal/domain/portfolio"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/postgres"
	"gorm.io/gorm"
)

type portfolioRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(client postgres.IClient, logger *logger.Logger) domainPortfolio.Repository {
	return &portfolioRepository{
		client: client,
		logger: logger,
	}
}

func (r *portfolioRepository) GetByUserID(ctx context.Context, userID string) (*domainPortfolio.Portfolio, error) {
	var p domainPortfolio.Portfolio
	err := r.client.Querier(ctx).
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get portfolio").
			WithReportableDetails(map[string]interface{}{
				"user_id": userID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *portfolioRepository) SetPublished(ctx context.Context, userID string, published bool) error {
	err := r.client.Querier(ctx).
		Model(&domainPortfolio.Portfolio{}).
		Where("user_id = ?", userID).
		Update("is_published", published).Error
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update portfolio publish state").
			WithReportableDetails(map[string]interface{}{
				"user_id":   userID,
				"published": published,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
