package memory

import (
	"context"
	"sort"
	"sync"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// CycleStore is an in-memory implementation of storage.CycleStore.
type CycleStore struct {
	mu   sync.RWMutex
	data map[int]*domain.EvolutionCycle // keyed by generation
}

// NewCycleStore creates a new in-memory cycle store.
func NewCycleStore() *CycleStore {
	return &CycleStore{
		data: make(map[int]*domain.EvolutionCycle),
	}
}

var _ storage.CycleStore = (*CycleStore)(nil)

// Insert adds a cycle record. Returns ErrDuplicateKey if the generation exists.
func (s *CycleStore) Insert(_ context.Context, c *domain.EvolutionCycle) error {
	if c == nil || c.Generation < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.Generation]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[c.Generation] = copyCycle(c)
	return nil
}

// GetByGeneration retrieves one cycle. Returns ErrNotFound if not exists.
func (s *CycleStore) GetByGeneration(_ context.Context, generation int) (*domain.EvolutionCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[generation]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyCycle(c), nil
}

// GetAll retrieves all cycles, ordered by generation ASC.
func (s *CycleStore) GetAll(_ context.Context) ([]*domain.EvolutionCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.EvolutionCycle, 0, len(s.data))
	for _, c := range s.data {
		result = append(result, copyCycle(c))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Generation < result[j].Generation
	})
	return result, nil
}

// Latest retrieves the highest-generation cycle. Returns ErrNotFound when empty.
func (s *CycleStore) Latest(_ context.Context) (*domain.EvolutionCycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.EvolutionCycle
	for _, c := range s.data {
		if latest == nil || c.Generation > latest.Generation {
			latest = c
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copyCycle(latest), nil
}

// DeleteAll removes every cycle.
func (s *CycleStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[int]*domain.EvolutionCycle)
	return nil
}

func copyCycle(c *domain.EvolutionCycle) *domain.EvolutionCycle {
	cp := *c
	cp.SurvivorIDs = append([]string(nil), c.SurvivorIDs...)
	cp.DeadIDs = append([]string(nil), c.DeadIDs...)
	cp.NewlyBornIDs = append([]string(nil), c.NewlyBornIDs...)
	return &cp
}
