package testutil

import (
	"context"
	"sync"

	"github.com/elevatehq/elevate-api/internal/domain/portfolio"
	ierr "github.com/elevatehq/elevate-api/internal/errors"
)

// InMemoryPortfolioStore implements portfolio.Repository.
type InMemoryPortfolioStore struct {
	mu   sync.RWMutex
	rows map[string]*portfolio.Portfolio // keyed by user id
}

func NewInMemoryPortfolioStore() *InMemoryPortfolioStore {
	return &InMemoryPortfolioStore{
		rows: make(map[string]*portfolio.Portfolio),
	}
}

// Seed inserts a portfolio row directly.
func (s *InMemoryPortfolioStore) Seed(pf *portfolio.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *pf
	s.rows[pf.UserID] = &copied
}

func (s *InMemoryPortfolioStore) GetByUserID(_ context.Context, userID string) (*portfolio.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[userID]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (s *InMemoryPortfolioStore) SetPublished(_ context.Context, userID string, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[userID]
	if !ok {
		return ierr.NewError("portfolio not found").
			Mark(ierr.ErrNotFound)
	}
	row.IsPublished = published
	return nil
}
