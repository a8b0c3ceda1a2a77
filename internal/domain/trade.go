package domain

import "time"

// Exit reason codes. A closed trade carries exactly one.
const (
	ExitReasonTakeProfit = "take_profit"
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTimeExit   = "time_exit"
	ExitReasonVolumeDrop = "volume_drop"
	ExitReasonManual     = "manual"
)

// Trade is a single simulated (or venue-routed) fill pair.
// State machine: open -> closed, once.
type Trade struct {
	ID         string `json:"id"`
	StrategyID string `json:"strategy_id"`

	// Token identity at entry
	TokenAddress string `json:"token_address"`
	TokenName    string `json:"token_name"`
	TokenSymbol  string `json:"token_symbol"`

	// Entry
	EntryPrice float64   `json:"entry_price"`
	AmountSol  float64   `json:"amount_sol"`
	EntryTime  time.Time `json:"entry_time"`

	// Derived exit levels, fixed at open
	TakeProfitPrice   float64   `json:"take_profit_price"`
	StopLossPrice     float64   `json:"stop_loss_price"`
	TimeExitTimestamp time.Time `json:"time_exit_timestamp"`

	IsPaperTrade  bool   `json:"is_paper_trade"`
	FillSignature string `json:"fill_signature,omitempty"`

	// Exit, set exactly once at close
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	ExitTime   *time.Time `json:"exit_time,omitempty"`
	PnLSol     *float64   `json:"pnl_sol,omitempty"`
	PnLPercent *float64   `json:"pnl_percent,omitempty"`
	ExitReason string     `json:"exit_reason,omitempty"`
}

// IsOpen reports whether the trade has not been closed yet.
func (t *Trade) IsOpen() bool {
	return t.ExitPrice == nil
}

// Position is the live view of an open trade. Owned 1:1 by its trade
// while open; destroyed at close.
type Position struct {
	Trade *Trade `json:"trade"`

	CurrentPrice         float64   `json:"current_price"`
	UnrealizedPnL        float64   `json:"unrealized_pnl"`         // SOL
	UnrealizedPnLPercent float64   `json:"unrealized_pnl_percent"` // fraction, 0.10 = +10%
	TokenAmount          float64   `json:"token_amount"`
	OpenedAt             time.Time `json:"opened_at"`
	LastUpdated          time.Time `json:"last_updated"`
}

// NewPosition materializes the live view of a freshly opened trade.
func NewPosition(t *Trade) *Position {
	amount := 0.0
	if t.EntryPrice > 0 {
		amount = t.AmountSol / t.EntryPrice
	}
	return &Position{
		Trade:        t,
		CurrentPrice: t.EntryPrice,
		TokenAmount:  amount,
		OpenedAt:     t.EntryTime,
		LastUpdated:  t.EntryTime,
	}
}

// Update recomputes the unrealized PnL against a fresh price.
func (p *Position) Update(price float64, now time.Time) {
	p.CurrentPrice = price
	if p.Trade.EntryPrice > 0 {
		p.UnrealizedPnLPercent = (price - p.Trade.EntryPrice) / p.Trade.EntryPrice
	}
	p.UnrealizedPnL = p.UnrealizedPnLPercent * p.Trade.AmountSol
	p.LastUpdated = now
}
