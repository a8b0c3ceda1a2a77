// Package execution is the venue boundary. The paper implementation
// synthesizes fills; a real implementation would submit to a venue and
// map the transaction back. Callers treat the two identically.
package execution

import (
	"context"

	"evo-trader/internal/domain"
)

// Sides, as recorded on fill signatures.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Adapter opens and closes positions against a venue.
type Adapter interface {
	// Buy opens a position of amountSol for the strategy at the token's
	// current quote and returns the open trade.
	Buy(ctx context.Context, strategy *domain.StrategyGenome, token *domain.Token, amountSol float64) (*domain.Trade, error)

	// Sell closes the position at its current price with the given exit
	// reason and returns the fully closed trade.
	Sell(ctx context.Context, position *domain.Position, reason string) (*domain.Trade, error)
}
