package memory

import (
	"context"
	"sort"
	"sync"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// ObservationStore is an in-memory implementation of storage.ObservationStore.
type ObservationStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.TokenObservation // keyed by token address
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{
		data: make(map[string][]*domain.TokenObservation),
	}
}

var _ storage.ObservationStore = (*ObservationStore)(nil)

// InsertBulk appends observation rows. Duplicates are tolerated.
func (s *ObservationStore) InsertBulk(_ context.Context, obs []*domain.TokenObservation) error {
	if len(obs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range obs {
		if o == nil || o.Address == "" {
			return storage.ErrInvalidInput
		}
		c := *o
		s.data[o.Address] = append(s.data[o.Address], &c)
	}
	return nil
}

// GetByAddress retrieves all rows for a token, ordered by timestamp ASC.
func (s *ObservationStore) GetByAddress(_ context.Context, address string) ([]*domain.TokenObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.data[address]
	result := make([]*domain.TokenObservation, 0, len(rows))
	for _, o := range rows {
		c := *o
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}

// GetByTimeRange retrieves rows for a token within [start, end] (inclusive).
func (s *ObservationStore) GetByTimeRange(_ context.Context, address string, start, end int64) ([]*domain.TokenObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenObservation
	for _, o := range s.data[address] {
		if o.TimestampMs >= start && o.TimestampMs <= end {
			c := *o
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})
	return result, nil
}
