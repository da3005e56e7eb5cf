package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	domainUser "github.com/elevatehq/elevate-api/internal/domain/user"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/postgres"
	"gorm.io/gorm"
)

type userRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewUserRepository creates a new user profile repository
func NewUserRepository(client postgres.IClient, logger *logger.Logger) domainUser.Repository {
	return &userRepository{
		client: client,
		logger: logger,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domainUser.Profile, error) {
	var profile domainUser.Profile
	err := r.client.Querier(ctx).
		Where("id = ?", id).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get user profile").
			WithReportableDetails(map[string]interface{}{
				"user_id": id,
			}).
			Mark(ierr.ErrDatabase)
	}
	return &profile, nil
}
