package memory

import (
	"context"
	"sync"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// TreasuryStore is an in-memory implementation of storage.TreasuryStore.
type TreasuryStore struct {
	mu       sync.RWMutex
	snapshot *domain.Treasury
}

// NewTreasuryStore creates a new in-memory treasury store.
func NewTreasuryStore() *TreasuryStore {
	return &TreasuryStore{}
}

var _ storage.TreasuryStore = (*TreasuryStore)(nil)

// Save upserts the snapshot.
func (s *TreasuryStore) Save(_ context.Context, t *domain.Treasury) error {
	if t == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = copyTreasury(t)
	return nil
}

// Load retrieves the snapshot. Returns ErrNotFound if none was saved.
func (s *TreasuryStore) Load(_ context.Context) (*domain.Treasury, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return nil, storage.ErrNotFound
	}
	return copyTreasury(s.snapshot), nil
}

// Delete removes the snapshot.
func (s *TreasuryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = nil
	return nil
}

func copyTreasury(t *domain.Treasury) *domain.Treasury {
	c := *t
	c.Allocations = make(map[string]domain.StrategyAllocation, len(t.Allocations))
	for id, a := range t.Allocations {
		c.Allocations[id] = a
	}
	return &c
}
