package webhookevent

import "context"

// Repository provides access to the webhook_events audit table. Writes are
// best-effort from the caller's perspective: audit failures are logged and
// never abort webhook processing.
type Repository interface {
	// Create inserts the audit row. A redelivered event id is a no-op insert
	// (the original row is kept), not an error.
	Create(ctx context.Context, event *WebhookEvent) error

	// MarkProcessed records the processing outcome for the row.
	MarkProcessed(ctx context.Context, id string, processingErr error) error

	// List returns the most recent events, newest first.
	List(ctx context.Context, limit int) ([]*WebhookEvent, error)
}
