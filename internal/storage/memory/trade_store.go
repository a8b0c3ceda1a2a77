package memory

import (
	"context"
	"sort"
	"sync"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Trade // keyed by trade ID
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.Trade),
	}
}

var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if the ID exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[t.ID] = copyTrade(t)
	return nil
}

// Update overwrites an existing trade. Returns ErrNotFound if not exists.
func (s *TradeStore) Update(_ context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.ID]; !exists {
		return storage.ErrNotFound
	}

	s.data[t.ID] = copyTrade(t)
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, id string) (*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyTrade(t), nil
}

// GetOpen retrieves all trades without an exit, ordered by entry time ASC.
func (s *TradeStore) GetOpen(_ context.Context) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.IsOpen() {
			result = append(result, copyTrade(t))
		}
	}
	sortTrades(result)
	return result, nil
}

// GetByStrategy retrieves all trades for a strategy, ordered by entry time ASC.
func (s *TradeStore) GetByStrategy(_ context.Context, strategyID string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Trade
	for _, t := range s.data {
		if t.StrategyID == strategyID {
			result = append(result, copyTrade(t))
		}
	}
	sortTrades(result)
	return result, nil
}

// GetAll retrieves every trade, ordered by entry time ASC.
func (s *TradeStore) GetAll(_ context.Context) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trade, 0, len(s.data))
	for _, t := range s.data {
		result = append(result, copyTrade(t))
	}
	sortTrades(result)
	return result, nil
}

// DeleteAll removes every trade.
func (s *TradeStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]*domain.Trade)
	return nil
}

func copyTrade(t *domain.Trade) *domain.Trade {
	c := *t
	if t.ExitPrice != nil {
		v := *t.ExitPrice
		c.ExitPrice = &v
	}
	if t.ExitTime != nil {
		v := *t.ExitTime
		c.ExitTime = &v
	}
	if t.PnLSol != nil {
		v := *t.PnLSol
		c.PnLSol = &v
	}
	if t.PnLPercent != nil {
		v := *t.PnLPercent
		c.PnLPercent = &v
	}
	return &c
}

func sortTrades(trades []*domain.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		if !trades[i].EntryTime.Equal(trades[j].EntryTime) {
			return trades[i].EntryTime.Before(trades[j].EntryTime)
		}
		return trades[i].ID < trades[j].ID
	})
}
