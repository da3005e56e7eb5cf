package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	domainSub "github.com/elevatehq/elevate-api/internal/domain/subscription"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/postgres"
	"github.com/elevatehq/elevate-api/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) domainSub.Repository {
	return &subscriptionRepository{
		client: client,
		logger: logger,
	}
}

// subscriptionUpdateColumns are the columns refreshed on conflict. The row id
// and ownership keys are deliberately excluded.
var subscriptionUpdateColumns = []string{
	"plan",
	"billing_cadence",
	"status",
	"current_period_start",
	"current_period_end",
	"cancel_at_period_end",
	"canceled_at",
	"trial_start",
	"trial_end",
	"provider_price_id",
	"updated_at",
}

// Upsert performs the conflict-resolving write described on the Repository
// interface. Everything runs in one transaction so the delete and the insert
// cannot be split by a concurrent delivery.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *domainSub.Subscription) error {
	r.logger.Debugw("upserting subscription",
		"user_id", sub.UserID,
		"provider_subscription_id", sub.ProviderSubscriptionID,
	)

	return r.client.WithTx(ctx, func(ctx context.Context) error {
		db := r.client.Querier(ctx)

		// If a different provider subscription already owns this (user,
		// customer) pair, drop it: the provider replaced the subscription
		// object (trial -> paid) and the new id is authoritative.
		var existing domainSub.Subscription
		err := db.Where("user_id = ? AND provider_customer_id = ?", sub.UserID, sub.ProviderCustomerID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.ProviderSubscriptionID != sub.ProviderSubscriptionID {
				if err := db.Delete(&domainSub.Subscription{}, "id = ?", existing.ID).Error; err != nil {
					return ierr.WithError(err).
						WithHint("Failed to remove superseded subscription").
						WithReportableDetails(map[string]interface{}{
							"superseded_id": existing.ProviderSubscriptionID,
							"incoming_id":   sub.ProviderSubscriptionID,
						}).
						Mark(ierr.ErrDatabase)
				}
				r.logger.Infow("replaced superseded subscription",
					"user_id", sub.UserID,
					"superseded_id", existing.ProviderSubscriptionID,
					"incoming_id", sub.ProviderSubscriptionID,
				)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// first subscription for this pair
		default:
			return ierr.WithError(err).
				WithHint("Failed to look up existing subscription").
				Mark(ierr.ErrDatabase)
		}

		if sub.ID == "" {
			sub.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION)
		}

		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_subscription_id"}},
			DoUpdates: clause.AssignmentColumns(subscriptionUpdateColumns),
		}).Create(sub).Error
		if err == nil {
			return nil
		}

		// The insert can still trip the (user, customer) unique key when the
		// pair is owned by a row we chose to keep. Fall back to a targeted
		// update of that row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			res := db.Model(&domainSub.Subscription{}).
				Where("user_id = ? AND provider_customer_id = ?", sub.UserID, sub.ProviderCustomerID).
				Updates(map[string]interface{}{
					"provider_subscription_id": sub.ProviderSubscriptionID,
					"plan":                     sub.Plan,
					"billing_cadence":          sub.BillingCadence,
					"status":                   sub.Status,
					"current_period_start":     sub.CurrentPeriodStart,
					"current_period_end":       sub.CurrentPeriodEnd,
					"cancel_at_period_end":     sub.CancelAtPeriodEnd,
					"canceled_at":              sub.CanceledAt,
					"trial_start":              sub.TrialStart,
					"trial_end":                sub.TrialEnd,
					"provider_price_id":        sub.ProviderPriceID,
				})
			if res.Error != nil {
				return ierr.WithError(res.Error).
					WithHint("Subscription upsert fallback update failed").
					WithReportableDetails(map[string]interface{}{
						"user_id":                  sub.UserID,
						"provider_subscription_id": sub.ProviderSubscriptionID,
					}).
					Mark(ierr.ErrDatabase)
			}
			return nil
		}

		return ierr.WithError(err).
			WithHint("Failed to upsert subscription").
			WithReportableDetails(map[string]interface{}{
				"user_id":                  sub.UserID,
				"provider_subscription_id": sub.ProviderSubscriptionID,
			}).
			Mark(ierr.ErrDatabase)
	})
}

func (r *subscriptionRepository) GetByProviderSubscriptionID(ctx context.Context, providerSubscriptionID string) (*domainSub.Subscription, error) {
	var sub domainSub.Subscription
	err := r.client.Querier(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			WithReportableDetails(map[string]interface{}{
				"provider_subscription_id": providerSubscriptionID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetLatestByUserID(ctx context.Context, userID string) (*domainSub.Subscription, error) {
	var sub domainSub.Subscription
	err := r.client.Querier(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get latest subscription for user").
			WithReportableDetails(map[string]interface{}{
				"user_id": userID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, providerSubscriptionID string, status types.SubscriptionStatus, canceledAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if canceledAt != nil {
		updates["canceled_at"] = canceledAt
	}

	res := r.client.Querier(ctx).
		Model(&domainSub.Subscription{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Updates(updates)
	if res.Error != nil {
		return ierr.WithError(res.Error).
			WithHint("Failed to update subscription status").
			WithReportableDetails(map[string]interface{}{
				"provider_subscription_id": providerSubscriptionID,
				"status":                   status,
			}).
			Mark(ierr.ErrDatabase)
	}
	if res.RowsAffected == 0 {
		return ierr.NewError("subscription not found").
			WithHint("No subscription row for provider subscription id").
			WithReportableDetails(map[string]interface{}{
				"provider_subscription_id": providerSubscriptionID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
