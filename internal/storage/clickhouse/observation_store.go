package clickhouse

import (
	"context"
	"fmt"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// ObservationStore implements storage.ObservationStore using ClickHouse.
// Token history is append-heavy and query-light, which is what the
// MergeTree engine is for; duplicate rows are tolerated by contract.
type ObservationStore struct {
	conn *Conn
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(conn *Conn) *ObservationStore {
	return &ObservationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ObservationStore = (*ObservationStore)(nil)

// InsertBulk appends observation rows.
func (s *ObservationStore) InsertBulk(ctx context.Context, obs []*domain.TokenObservation) error {
	if len(obs) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_observations (
			address, timestamp_ms, price_usd, market_cap, volume_24h, liquidity, holders
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range obs {
		if o == nil || o.Address == "" {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			o.Address, uint64(o.TimestampMs),
			o.PriceUSD, o.MarketCap, o.Volume24h, o.Liquidity, uint32(o.Holders),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByAddress retrieves all rows for a token, ordered by timestamp ASC.
func (s *ObservationStore) GetByAddress(ctx context.Context, address string) ([]*domain.TokenObservation, error) {
	query := `
		SELECT address, timestamp_ms, price_usd, market_cap, volume_24h, liquidity, holders
		FROM token_observations
		WHERE address = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query by address: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetByTimeRange retrieves rows for a token within [start, end] (inclusive).
func (s *ObservationStore) GetByTimeRange(ctx context.Context, address string, start, end int64) ([]*domain.TokenObservation, error) {
	query := `
		SELECT address, timestamp_ms, price_usd, market_cap, volume_24h, liquidity, holders
		FROM token_observations
		WHERE address = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, address, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// chRows is the subset of driver.Rows the scanners need.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanObservations(rows chRows) ([]*domain.TokenObservation, error) {
	var result []*domain.TokenObservation

	for rows.Next() {
		var o domain.TokenObservation
		var timestampMs uint64
		var holders uint32

		err := rows.Scan(
			&o.Address, &timestampMs,
			&o.PriceUSD, &o.MarketCap, &o.Volume24h, &o.Liquidity, &holders,
		)
		if err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}

		o.TimestampMs = int64(timestampMs)
		o.Holders = int(holders)
		result = append(result, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}
	return result, nil
}
