package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	domainEvent "github.com/elevatehq/elevate-api/internal/domain/webhookevent"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/logger"
	"github.com/elevatehq/elevate-api/internal/postgres"
	"github.com/elevatehq/elevate-api/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookEventRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(client postgres.IClient, logger *logger.Logger) domainEvent.Repository {
	return &webhookEventRepository{
		client: client,
		logger: logger,
	}
}

func (r *webhookEventRepository) Create(ctx context.Context, event *domainEvent.WebhookEvent) error {
	if event.ID == "" {
		event.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT)
	}

	// Redeliveries of the same provider event id keep the original audit row.
	// Handlers still run for the redelivery; dedup here is audit-only.
	err := r.client.Querier(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(event).Error
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record webhook event").
			WithReportableDetails(map[string]interface{}{
				"provider_event_id": event.ProviderEventID,
				"event_type":        event.EventType,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id string, processingErr error) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"processed":    processingErr == nil,
		"processed_at": &now,
	}
	if processingErr != nil {
		msg := processingErr.Error()
		updates["processing_error"] = &msg
	} else {
		// Unknown-but-harmless event types are acknowledged as processed.
		updates["processing_error"] = gorm.Expr("NULL")
	}

	err := r.client.Querier(ctx).
		Model(&domainEvent.WebhookEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update webhook event status").
			WithReportableDetails(map[string]interface{}{
				"id": id,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *webhookEventRepository) List(ctx context.Context, limit int) ([]*domainEvent.WebhookEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var events []*domainEvent.WebhookEvent
	err := r.client.Querier(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ierr.WithError(err).
			WithHint("Failed to list webhook events").
			Mark(ierr.ErrDatabase)
	}
	return events, nil
}
