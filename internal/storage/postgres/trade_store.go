package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	id, strategy_id, token_address, token_name, token_symbol,
	entry_price, amount_sol, entry_time,
	take_profit_price, stop_loss_price, time_exit_timestamp,
	is_paper_trade, fill_signature,
	exit_price, exit_time, pnl_sol, pnl_percent, exit_reason
`

// Insert adds a new trade. Returns ErrDuplicateKey if the ID exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trades (` + tradeColumns + `)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			$12, $13,
			$14, $15, $16, $17, $18
		)
	`

	_, err := s.pool.Exec(ctx, query,
		t.ID, t.StrategyID, t.TokenAddress, t.TokenName, t.TokenSymbol,
		t.EntryPrice, t.AmountSol, t.EntryTime,
		t.TakeProfitPrice, t.StopLossPrice, t.TimeExitTimestamp,
		t.IsPaperTrade, t.FillSignature,
		t.ExitPrice, t.ExitTime, t.PnLSol, t.PnLPercent, t.ExitReason,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Update overwrites an existing trade. Returns ErrNotFound if not exists.
func (s *TradeStore) Update(ctx context.Context, t *domain.Trade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE trades SET
			strategy_id = $2, token_address = $3, token_name = $4, token_symbol = $5,
			entry_price = $6, amount_sol = $7, entry_time = $8,
			take_profit_price = $9, stop_loss_price = $10, time_exit_timestamp = $11,
			is_paper_trade = $12, fill_signature = $13,
			exit_price = $14, exit_time = $15, pnl_sol = $16, pnl_percent = $17, exit_reason = $18
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		t.ID, t.StrategyID, t.TokenAddress, t.TokenName, t.TokenSymbol,
		t.EntryPrice, t.AmountSol, t.EntryTime,
		t.TakeProfitPrice, t.StopLossPrice, t.TimeExitTimestamp,
		t.IsPaperTrade, t.FillSignature,
		t.ExitPrice, t.ExitTime, t.PnLSol, t.PnLPercent, t.ExitReason,
	)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(ctx context.Context, id string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return t, nil
}

// GetOpen retrieves all trades without an exit, ordered by entry time ASC.
func (s *TradeStore) GetOpen(ctx context.Context) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE exit_price IS NULL
		ORDER BY entry_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get open trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByStrategy retrieves all trades for a strategy, ordered by entry time ASC.
func (s *TradeStore) GetByStrategy(ctx context.Context, strategyID string) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		WHERE strategy_id = $1
		ORDER BY entry_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("get trades by strategy: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetAll retrieves every trade, ordered by entry time ASC.
func (s *TradeStore) GetAll(ctx context.Context) ([]*domain.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM trades
		ORDER BY entry_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// DeleteAll removes every trade.
func (s *TradeStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM trades`); err != nil {
		return fmt.Errorf("delete all trades: %w", err)
	}
	return nil
}

// scanTrade scans a single row into a Trade.
func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	err := row.Scan(
		&t.ID, &t.StrategyID, &t.TokenAddress, &t.TokenName, &t.TokenSymbol,
		&t.EntryPrice, &t.AmountSol, &t.EntryTime,
		&t.TakeProfitPrice, &t.StopLossPrice, &t.TimeExitTimestamp,
		&t.IsPaperTrade, &t.FillSignature,
		&t.ExitPrice, &t.ExitTime, &t.PnLSol, &t.PnLPercent, &t.ExitReason,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTrades scans multiple rows into a slice of Trade.
func scanTrades(rows pgx.Rows) ([]*domain.Trade, error) {
	var trades []*domain.Trade

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
