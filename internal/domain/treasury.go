package domain

import "time"

// StrategyAllocation is one strategy's slice of the shared treasury.
// Invariant: AvailableSol = AllocatedSol - LockedSol >= 0.
type StrategyAllocation struct {
	StrategyID   string  `json:"strategy_id"`
	AllocatedSol float64 `json:"allocated_sol"`
	LockedSol    float64 `json:"locked_sol"`
	AvailableSol float64 `json:"available_sol"`
	RealizedPnL  float64 `json:"realized_pnl"`
}

// Treasury is a point-in-time snapshot of the shared capital accountant.
// Invariants: sum of per-strategy LockedSol <= LockedInPositions
// (equality when no drift); TotalPnL = sum of closed trade PnL.
type Treasury struct {
	TotalSol                 float64                       `json:"total_sol"`
	AvailableToTrade         float64                       `json:"available_to_trade"`
	LockedInPositions        float64                       `json:"locked_in_positions"`
	TotalPnL                 float64                       `json:"total_pnl"`
	ReservePercent           float64                       `json:"reserve_percent"`
	MaxAllocationPerStrategy float64                       `json:"max_allocation_per_strategy"`
	Allocations              map[string]StrategyAllocation `json:"allocations"`
	UpdatedAt                time.Time                     `json:"updated_at"`
}
