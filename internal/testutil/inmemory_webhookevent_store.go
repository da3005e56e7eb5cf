package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/elevatehq/elevate-api/internal/domain/webhookevent"
)

// InMemoryWebhookEventStore implements webhookevent.Repository.
type InMemoryWebhookEventStore struct {
	mu   sync.RWMutex
	rows map[string]*webhookevent.WebhookEvent
}

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		rows: make(map[string]*webhookevent.WebhookEvent),
	}
}

func (s *InMemoryWebhookEventStore) Create(_ context.Context, event *webhookevent.WebhookEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Redelivered provider event ids keep the original row.
	for _, row := range s.rows {
		if row.ProviderEventID == event.ProviderEventID {
			return nil
		}
	}

	copied := *event
	copied.CreatedAt = time.Now().UTC()
	s.rows[event.ID] = &copied
	return nil
}

func (s *InMemoryWebhookEventStore) MarkProcessed(_ context.Context, id string, processingErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	row.ProcessedAt = &now
	if processingErr != nil {
		row.Processed = false
		msg := processingErr.Error()
		row.ProcessingError = &msg
	} else {
		row.Processed = true
		row.ProcessingError = nil
	}
	return nil
}

func (s *InMemoryWebhookEventStore) List(_ context.Context, limit int) ([]*webhookevent.WebhookEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*webhookevent.WebhookEvent, 0, len(s.rows))
	for _, row := range s.rows {
		copied := *row
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetByProviderEventID is a test helper for asserting on audit rows.
func (s *InMemoryWebhookEventStore) GetByProviderEventID(providerEventID string) *webhookevent.WebhookEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.ProviderEventID == providerEventID {
			copied := *row
			return &copied
		}
	}
	return nil
}
