package testutil

import (
	"context"
	"sync"

	"github.com/elevatehq/elevate-api/internal/domain/user"
)

// InMemoryUserStore implements user.Repository.
type InMemoryUserStore struct {
	mu   sync.RWMutex
	rows map[string]*user.Profile
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		rows: make(map[string]*user.Profile),
	}
}

// Seed inserts a profile row directly.
func (s *InMemoryUserStore) Seed(profile *user.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.rows[profile.ID] = &copied
}

func (s *InMemoryUserStore) GetByID(_ context.Context, id string) (*user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}
