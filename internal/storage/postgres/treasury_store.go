package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// TreasuryStore implements storage.TreasuryStore using PostgreSQL.
// The treasury is a single-row table; Save upserts row id 1.
type TreasuryStore struct {
	pool *Pool
}

// NewTreasuryStore creates a new TreasuryStore.
func NewTreasuryStore(pool *Pool) *TreasuryStore {
	return &TreasuryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TreasuryStore = (*TreasuryStore)(nil)

// Save upserts the snapshot.
func (s *TreasuryStore) Save(ctx context.Context, t *domain.Treasury) error {
	if t == nil {
		return storage.ErrInvalidInput
	}

	allocations, err := json.Marshal(t.Allocations)
	if err != nil {
		return fmt.Errorf("marshal allocations: %w", err)
	}

	query := `
		INSERT INTO treasury (
			id, total_sol, available_to_trade, locked_in_positions, total_pnl,
			reserve_percent, max_allocation_per_strategy, allocations, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			total_sol = EXCLUDED.total_sol,
			available_to_trade = EXCLUDED.available_to_trade,
			locked_in_positions = EXCLUDED.locked_in_positions,
			total_pnl = EXCLUDED.total_pnl,
			reserve_percent = EXCLUDED.reserve_percent,
			max_allocation_per_strategy = EXCLUDED.max_allocation_per_strategy,
			allocations = EXCLUDED.allocations,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		t.TotalSol, t.AvailableToTrade, t.LockedInPositions, t.TotalPnL,
		t.ReservePercent, t.MaxAllocationPerStrategy, allocations, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save treasury: %w", err)
	}
	return nil
}

// Load retrieves the snapshot. Returns ErrNotFound if none was saved.
func (s *TreasuryStore) Load(ctx context.Context) (*domain.Treasury, error) {
	query := `
		SELECT total_sol, available_to_trade, locked_in_positions, total_pnl,
			reserve_percent, max_allocation_per_strategy, allocations, updated_at
		FROM treasury
		WHERE id = 1
	`

	var t domain.Treasury
	var allocations []byte

	err := s.pool.QueryRow(ctx, query).Scan(
		&t.TotalSol, &t.AvailableToTrade, &t.LockedInPositions, &t.TotalPnL,
		&t.ReservePercent, &t.MaxAllocationPerStrategy, &allocations, &t.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("load treasury: %w", err)
	}

	if err := json.Unmarshal(allocations, &t.Allocations); err != nil {
		return nil, fmt.Errorf("unmarshal allocations: %w", err)
	}
	if t.Allocations == nil {
		t.Allocations = make(map[string]domain.StrategyAllocation)
	}
	return &t, nil
}

// Delete removes the snapshot.
func (s *TreasuryStore) Delete(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM treasury`); err != nil {
		return fmt.Errorf("delete treasury: %w", err)
	}
	return nil
}
