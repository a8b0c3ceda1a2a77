package memory

import (
	"context"
	"sort"
	"sync"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyGenome // keyed by strategy ID
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{
		data: make(map[string]*domain.StrategyGenome),
	}
}

var _ storage.StrategyStore = (*StrategyStore)(nil)

// Insert adds a new strategy. Returns ErrDuplicateKey if the ID exists.
func (s *StrategyStore) Insert(_ context.Context, g *domain.StrategyGenome) error {
	if g == nil || g.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[g.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[g.ID] = g.Clone()
	return nil
}

// Update overwrites an existing strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Update(_ context.Context, g *domain.StrategyGenome) error {
	if g == nil || g.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[g.ID]; !exists {
		return storage.ErrNotFound
	}

	s.data[g.ID] = g.Clone()
	return nil
}

// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(_ context.Context, id string) (*domain.StrategyGenome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return g.Clone(), nil
}

// GetByStatus retrieves all strategies with the given status, ordered by
// generation then ID for deterministic iteration.
func (s *StrategyStore) GetByStatus(_ context.Context, status string) ([]*domain.StrategyGenome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StrategyGenome
	for _, g := range s.data {
		if g.Status == status {
			result = append(result, g.Clone())
		}
	}
	sortGenomes(result)
	return result, nil
}

// GetAll retrieves every strategy, dead ones included.
func (s *StrategyStore) GetAll(_ context.Context) ([]*domain.StrategyGenome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StrategyGenome, 0, len(s.data))
	for _, g := range s.data {
		result = append(result, g.Clone())
	}
	sortGenomes(result)
	return result, nil
}

// ResetPerformance zeroes the performance record of every non-dead strategy.
func (s *StrategyStore) ResetPerformance(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.data {
		if g.Status != domain.StatusDead {
			g.Performance = domain.NewPerformance()
		}
	}
	return nil
}

// DeleteDead removes all dead strategies and reports how many were removed.
func (s *StrategyStore) DeleteDead(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, g := range s.data {
		if g.Status == domain.StatusDead {
			delete(s.data, id)
			n++
		}
	}
	return n, nil
}

// DeleteAll removes every strategy.
func (s *StrategyStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.StrategyGenome)
	return nil
}

func sortGenomes(genomes []*domain.StrategyGenome) {
	sort.Slice(genomes, func(i, j int) bool {
		if genomes[i].Generation != genomes[j].Generation {
			return genomes[i].Generation < genomes[j].Generation
		}
		return genomes[i].ID < genomes[j].ID
	})
}
