package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/elevatehq/elevate-api/internal/domain/subscription"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
	"github.com/elevatehq/elevate-api/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository with the same
// conflict semantics as the SQL implementation.
type InMemorySubscriptionStore struct {
	mu   sync.RWMutex
	rows map[string]*subscription.Subscription // keyed by row id
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		rows: make(map[string]*subscription.Subscription),
	}
}

func copySubscription(sub *subscription.Subscription) *subscription.Subscription {
	if sub == nil {
		return nil
	}
	copied := *sub
	return &copied
}

func (s *InMemorySubscriptionStore) Upsert(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drop a row holding the same (user, customer) pair under a different
	// provider subscription id, mirroring the SQL delete-then-upsert.
	for id, row := range s.rows {
		if row.UserID == sub.UserID &&
			row.ProviderCustomerID == sub.ProviderCustomerID &&
			row.ProviderSubscriptionID != sub.ProviderSubscriptionID {
			delete(s.rows, id)
		}
	}

	now := time.Now().UTC()
	for _, row := range s.rows {
		if row.ProviderSubscriptionID == sub.ProviderSubscriptionID {
			sub.ID = row.ID
			sub.CreatedAt = row.CreatedAt
			sub.UpdatedAt = now
			s.rows[row.ID] = copySubscription(sub)
			return nil
		}
	}

	if sub.ID == "" {
		sub.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION)
	}
	sub.CreatedAt = now
	sub.UpdatedAt = now
	s.rows[sub.ID] = copySubscription(sub)
	return nil
}

func (s *InMemorySubscriptionStore) GetByProviderSubscriptionID(_ context.Context, providerSubscriptionID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.ProviderSubscriptionID == providerSubscriptionID {
			return copySubscription(row), nil
		}
	}
	return nil, nil
}

func (s *InMemorySubscriptionStore) GetLatestByUserID(_ context.Context, userID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *subscription.Subscription
	for _, row := range s.rows {
		if row.UserID != userID {
			continue
		}
		if latest == nil || row.UpdatedAt.After(latest.UpdatedAt) {
			latest = row
		}
	}
	return copySubscription(latest), nil
}

func (s *InMemorySubscriptionStore) UpdateStatus(_ context.Context, providerSubscriptionID string, status types.SubscriptionStatus, canceledAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.ProviderSubscriptionID == providerSubscriptionID {
			row.Status = status
			if canceledAt != nil {
				row.CanceledAt = canceledAt
			}
			row.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ierr.NewError("subscription not found").
		Mark(ierr.ErrNotFound)
}

// Count returns the number of stored rows.
func (s *InMemorySubscriptionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
