package storage

import (
	"context"

	"evo-trader/internal/domain"
)

// StrategyStore provides access to strategies storage.
type StrategyStore interface {
	// Insert adds a new strategy. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, g *domain.StrategyGenome) error

	// Update overwrites an existing strategy. Returns ErrNotFound if not exists.
	Update(ctx context.Context, g *domain.StrategyGenome) error

	// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.StrategyGenome, error)

	// GetByStatus retrieves all strategies with the given status.
	GetByStatus(ctx context.Context, status string) ([]*domain.StrategyGenome, error)

	// GetAll retrieves every strategy, dead ones included.
	GetAll(ctx context.Context) ([]*domain.StrategyGenome, error)

	// ResetPerformance zeroes the performance record of every non-dead strategy.
	ResetPerformance(ctx context.Context) error

	// DeleteDead removes all dead strategies and reports how many were removed.
	DeleteDead(ctx context.Context) (int64, error)

	// DeleteAll removes every strategy.
	DeleteAll(ctx context.Context) error
}

// TradeStore provides access to trades storage.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, t *domain.Trade) error

	// Update overwrites an existing trade, typically to record the close.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, t *domain.Trade) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Trade, error)

	// GetOpen retrieves all trades without an exit, ordered by entry time ASC.
	GetOpen(ctx context.Context) ([]*domain.Trade, error)

	// GetByStrategy retrieves all trades for a strategy, ordered by entry time ASC.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.Trade, error)

	// GetAll retrieves every trade, ordered by entry time ASC.
	GetAll(ctx context.Context) ([]*domain.Trade, error)

	// DeleteAll removes every trade.
	DeleteAll(ctx context.Context) error
}

// CycleStore provides access to evolution_cycles storage.
type CycleStore interface {
	// Insert adds a cycle record. Returns ErrDuplicateKey if the generation exists.
	Insert(ctx context.Context, c *domain.EvolutionCycle) error

	// GetByGeneration retrieves one cycle. Returns ErrNotFound if not exists.
	GetByGeneration(ctx context.Context, generation int) (*domain.EvolutionCycle, error)

	// GetAll retrieves all cycles, ordered by generation ASC.
	GetAll(ctx context.Context) ([]*domain.EvolutionCycle, error)

	// Latest retrieves the highest-generation cycle. Returns ErrNotFound when empty.
	Latest(ctx context.Context) (*domain.EvolutionCycle, error)

	// DeleteAll removes every cycle.
	DeleteAll(ctx context.Context) error
}

// TreasuryStore persists the single treasury snapshot.
type TreasuryStore interface {
	// Save upserts the snapshot.
	Save(ctx context.Context, t *domain.Treasury) error

	// Load retrieves the snapshot. Returns ErrNotFound if none was saved.
	Load(ctx context.Context) (*domain.Treasury, error)

	// Delete removes the snapshot.
	Delete(ctx context.Context) error
}

// ObservationStore provides access to token market history.
type ObservationStore interface {
	// InsertBulk appends observation rows. Duplicates are tolerated.
	InsertBulk(ctx context.Context, obs []*domain.TokenObservation) error

	// GetByAddress retrieves all rows for a token, ordered by timestamp ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.TokenObservation, error)

	// GetByTimeRange retrieves rows for a token within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, address string, start, end int64) ([]*domain.TokenObservation, error)
}
