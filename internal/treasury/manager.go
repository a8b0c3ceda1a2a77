// Package treasury is the shared capital accountant: per-strategy
// allocation, lock/unlock around an open position, and PnL application
// at close. A single mutex serializes all operations; the invariant
// availableSol = allocatedSol - lockedSol >= 0 holds after every call.
package treasury

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
)

// Manager owns the process treasury. It is the only mutable shared
// resource in the system and must be passed as an explicit dependency.
type Manager struct {
	mu sync.Mutex

	totalSol                 float64
	lockedInPositions        float64
	totalPnL                 float64
	reservePercent           float64
	maxAllocationPerStrategy float64

	allocations map[string]*domain.StrategyAllocation

	log zerolog.Logger
}

// NewManager creates a treasury holding totalSol with the given reserve
// fraction and per-strategy allocation cap.
func NewManager(totalSol, reservePercent, maxAllocationPerStrategy float64, logger zerolog.Logger) *Manager {
	return &Manager{
		totalSol:                 totalSol,
		reservePercent:           reservePercent,
		maxAllocationPerStrategy: maxAllocationPerStrategy,
		allocations:              make(map[string]*domain.StrategyAllocation),
		log:                      logger.With().Str("component", "treasury").Logger(),
	}
}

// AllocateToStrategies splits the tradable balance evenly across the
// active strategies, capped per strategy. The reserve haircut applies
// to the cap as well, so a lone strategy never holds the reserve
// fraction of its cap. Existing locked funds and realized PnL are
// preserved; entries for retired strategies drop out once nothing of
// theirs is locked.
func (m *Manager) AllocateToStrategies(active []*domain.StrategyGenome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reserve := m.totalSol * m.reservePercent
	tradable := m.totalSol - reserve
	maxPer := m.maxAllocationPerStrategy * (1 - m.reservePercent)

	perStrategy := 0.0
	if len(active) > 0 {
		perStrategy = math.Min(tradable/float64(len(active)), maxPer)
	}

	activeIDs := make(map[string]struct{}, len(active))
	for _, s := range active {
		activeIDs[s.ID] = struct{}{}
		alloc, ok := m.allocations[s.ID]
		if !ok {
			alloc = &domain.StrategyAllocation{StrategyID: s.ID}
			m.allocations[s.ID] = alloc
		}
		alloc.AllocatedSol = perStrategy
		alloc.AvailableSol = math.Max(0, alloc.AllocatedSol-alloc.LockedSol)
	}

	for id, alloc := range m.allocations {
		if _, ok := activeIDs[id]; !ok && alloc.LockedSol == 0 {
			delete(m.allocations, id)
		}
	}

	m.log.Debug().
		Int("strategies", len(active)).
		Float64("per_strategy", perStrategy).
		Float64("reserve", reserve).
		Msg("treasury allocated")
}

// CanTrade reports whether the strategy has at least amt available.
func (m *Manager) CanTrade(strategyID string, amt float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	alloc, ok := m.allocations[strategyID]
	return ok && amt > 0 && alloc.AvailableSol >= amt
}

// LockFunds moves amt from available to locked for the strategy. Returns
// false when the invariant would be violated; nothing changes in that
// case.
func (m *Manager) LockFunds(strategyID string, amt float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	alloc, ok := m.allocations[strategyID]
	if !ok || amt <= 0 || alloc.AvailableSol < amt {
		m.log.Warn().Str("strategy_id", strategyID).Float64("amount", amt).Msg("lock refused")
		return false
	}

	alloc.AvailableSol -= amt
	alloc.LockedSol += amt
	m.lockedInPositions += amt
	return true
}

// UnlockFunds reverses a lock, flooring at zero. Used on failed opens.
func (m *Manager) UnlockFunds(strategyID string, amt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unlockLocked(strategyID, amt)
}

func (m *Manager) unlockLocked(strategyID string, amt float64) {
	alloc, ok := m.allocations[strategyID]
	if !ok || amt <= 0 {
		return
	}
	released := math.Min(amt, alloc.LockedSol)
	alloc.LockedSol -= released
	alloc.AvailableSol += released
	m.lockedInPositions = math.Max(0, m.lockedInPositions-released)
}

// RecordTradeClose applies a closed trade: unlock the position size, fold
// the realized PnL into the strategy's allocation and the global totals.
// The cumulative invariant totalPnL = sum of closed trade PnL holds.
func (m *Manager) RecordTradeClose(trade *domain.Trade) error {
	if trade == nil || trade.PnLSol == nil {
		return fmt.Errorf("record close: trade not closed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	alloc, ok := m.allocations[trade.StrategyID]
	if !ok {
		m.log.Error().Str("strategy_id", trade.StrategyID).Msg("close for unknown strategy rejected")
		return fmt.Errorf("record close: unknown strategy %s", trade.StrategyID)
	}

	m.unlockLocked(trade.StrategyID, trade.AmountSol)

	pnl := *trade.PnLSol
	alloc.RealizedPnL += pnl
	alloc.AllocatedSol += pnl
	alloc.AvailableSol += pnl
	if alloc.AvailableSol < 0 {
		// A loss larger than the free balance; clamp and surface.
		m.log.Error().Str("strategy_id", trade.StrategyID).Float64("available", alloc.AvailableSol).Msg("allocation driven negative by close")
		alloc.AllocatedSol -= alloc.AvailableSol
		alloc.AvailableSol = 0
	}

	m.totalSol += pnl
	m.totalPnL += pnl
	return nil
}

// Allocation returns a copy of one strategy's allocation.
func (m *Manager) Allocation(strategyID string) (domain.StrategyAllocation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alloc, ok := m.allocations[strategyID]
	if !ok {
		return domain.StrategyAllocation{}, false
	}
	return *alloc, true
}

// Snapshot exports the full treasury state for persistence and events.
func (m *Manager) Snapshot() *domain.Treasury {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &domain.Treasury{
		TotalSol:                 m.totalSol,
		AvailableToTrade:         m.totalSol - m.lockedInPositions,
		LockedInPositions:        m.lockedInPositions,
		TotalPnL:                 m.totalPnL,
		ReservePercent:           m.reservePercent,
		MaxAllocationPerStrategy: m.maxAllocationPerStrategy,
		Allocations:              make(map[string]domain.StrategyAllocation, len(m.allocations)),
		UpdatedAt:                time.Now().UTC(),
	}
	for id, alloc := range m.allocations {
		t.Allocations[id] = *alloc
	}
	return t
}

// Restore replaces the treasury state from a persisted snapshot.
func (m *Manager) Restore(t *domain.Treasury) {
	if t == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalSol = t.TotalSol
	m.lockedInPositions = t.LockedInPositions
	m.totalPnL = t.TotalPnL
	m.reservePercent = t.ReservePercent
	m.maxAllocationPerStrategy = t.MaxAllocationPerStrategy
	m.allocations = make(map[string]*domain.StrategyAllocation, len(t.Allocations))
	for id, alloc := range t.Allocations {
		a := alloc
		m.allocations[id] = &a
	}
}
