package dto

import (
	"time"

	"github.com/elevatehq/elevate-api/internal/domain/webhookevent"
	"github.com/samber/lo"
)

// WebhookEventResponse is the audit-trail view of one received provider event.
type WebhookEventResponse struct {
	ID                string     `json:"id"`
	ProviderEventID   string     `json:"provider_event_id"`
	EventType         string     `json:"event_type"`
	Processed         bool       `json:"processed"`
	ProcessingError   *string    `json:"processing_error,omitempty"`
	ProviderCreatedAt time.Time  `json:"provider_created_at"`
	ReceivedAt        time.Time  `json:"received_at"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty"`
}

// ListWebhookEventsResponse wraps the audit listing.
type ListWebhookEventsResponse struct {
	Events []WebhookEventResponse `json:"events"`
	Total  int                    `json:"total"`
}

// NewListWebhookEventsResponse converts audit rows to their API shape.
func NewListWebhookEventsResponse(events []*webhookevent.WebhookEvent) *ListWebhookEventsResponse {
	out := lo.Map(events, func(e *webhookevent.WebhookEvent, _ int) WebhookEventResponse {
		return WebhookEventResponse{
			ID:                e.ID,
			ProviderEventID:   e.ProviderEventID,
			EventType:         e.EventType,
			Processed:         e.Processed,
			ProcessingError:   e.ProcessingError,
			ProviderCreatedAt: e.ProviderCreatedAt,
			ReceivedAt:        e.CreatedAt,
			ProcessedAt:       e.ProcessedAt,
		}
	})
	return &ListWebhookEventsResponse{Events: out, Total: len(out)}
}
