package webhookevent

import (
	"encoding/json"
	"time"
)

// WebhookEvent is an append-only audit record of every inbound provider
// webhook. Rows are written before business logic runs and updated exactly
// once afterwards; they are never deleted.
type WebhookEvent struct {
	ID              string          `gorm:"primaryKey;size:50" json:"id"`
	ProviderEventID string          `gorm:"size:191;not null;uniqueIndex:ux_webhook_events_provider_event" json:"provider_event_id"`
	EventType       string          `gorm:"size:100;not null;index" json:"event_type"`
	Payload         json.RawMessage `gorm:"type:jsonb;not null" json:"payload"`
	// ProviderCreatedAt is the provider-reported creation time of the event,
	// not the time we received it.
	ProviderCreatedAt time.Time `gorm:"not null" json:"provider_created_at"`
	// SignatureSuffix keeps the tail of the signature header for debugging.
	// Never the full signature.
	SignatureSuffix string     `gorm:"size:20" json:"signature_suffix"`
	SourceIP        string     `gorm:"size:45" json:"source_ip"`
	Processed       bool       `gorm:"default:false;index" json:"processed"`
	ProcessingError *string    `gorm:"type:text" json:"processing_error,omitempty"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
