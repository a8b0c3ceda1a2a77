package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
	"evo-trader/internal/idhash"
)

// PaperAdapter synthesizes fills without contacting any venue. Slippage
// is symmetric: buys fill above quote, sells below current price.
type PaperAdapter struct {
	slippage float64
	log      zerolog.Logger
}

// NewPaperAdapter creates a paper adapter with the given slippage
// fraction (0.02 = 2%).
func NewPaperAdapter(slippage float64, logger zerolog.Logger) *PaperAdapter {
	return &PaperAdapter{
		slippage: slippage,
		log:      logger.With().Str("component", "execution").Bool("paper", true).Logger(),
	}
}

// Buy synthesizes an entry fill at priceUSD*(1+slippage) and derives the
// mechanical exit levels from the strategy's genes.
func (p *PaperAdapter) Buy(_ context.Context, strategy *domain.StrategyGenome, token *domain.Token, amountSol float64) (*domain.Trade, error) {
	if token.PriceUSD <= 0 {
		return nil, fmt.Errorf("paper buy %s: no quote", token.Address)
	}
	if amountSol <= 0 {
		return nil, fmt.Errorf("paper buy %s: non-positive amount %f", token.Address, amountSol)
	}

	now := time.Now().UTC()
	entry := token.PriceUSD * (1 + p.slippage)
	genes := strategy.Genes

	trade := &domain.Trade{
		ID:           uuid.NewString(),
		StrategyID:   strategy.ID,
		TokenAddress: token.Address,
		TokenName:    token.Name,
		TokenSymbol:  token.Symbol,

		EntryPrice: entry,
		AmountSol:  amountSol,
		EntryTime:  now,

		TakeProfitPrice:   entry * genes.TakeProfitMultiplier,
		StopLossPrice:     entry * genes.StopLossMultiplier,
		TimeExitTimestamp: now.Add(time.Duration(genes.TimeBasedExit * float64(time.Minute))),

		IsPaperTrade:  true,
		FillSignature: idhash.ComputeFillSignature(strategy.ID, token.Address, SideBuy, now.UnixMilli()),
	}

	p.log.Debug().
		Str("strategy_id", strategy.ID).
		Str("token", token.Symbol).
		Float64("entry", entry).
		Float64("amount_sol", amountSol).
		Msg("paper buy filled")
	return trade, nil
}

// Sell closes the position at currentPrice*(1-slippage) and computes the
// realized PnL against the locked amount.
func (p *PaperAdapter) Sell(_ context.Context, position *domain.Position, reason string) (*domain.Trade, error) {
	t := position.Trade
	if t == nil || !t.IsOpen() {
		return nil, fmt.Errorf("paper sell: position has no open trade")
	}
	if position.CurrentPrice <= 0 {
		return nil, fmt.Errorf("paper sell %s: no quote", t.TokenAddress)
	}

	now := time.Now().UTC()
	exit := position.CurrentPrice * (1 - p.slippage)
	pnlPercent := (exit - t.EntryPrice) / t.EntryPrice
	pnlSol := pnlPercent * t.AmountSol

	closed := *t
	closed.ExitPrice = &exit
	closed.ExitTime = &now
	closed.PnLSol = &pnlSol
	closed.PnLPercent = &pnlPercent
	closed.ExitReason = reason
	closed.FillSignature = idhash.ComputeFillSignature(t.StrategyID, t.TokenAddress, SideSell, now.UnixMilli())

	p.log.Debug().
		Str("trade_id", t.ID).
		Str("reason", reason).
		Float64("exit", exit).
		Float64("pnl_sol", pnlSol).
		Msg("paper sell filled")
	return &closed, nil
}

var _ Adapter = (*PaperAdapter)(nil)
