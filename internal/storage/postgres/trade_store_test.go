package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

func pgTrade(id, strategyID string, entry time.Time) *domain.Trade {
	return &domain.Trade{
		ID:                id,
		StrategyID:        strategyID,
		TokenAddress:      "tok-1",
		TokenName:         "Moon Cat",
		TokenSymbol:       "MCAT",
		EntryPrice:        1.02,
		AmountSol:         2.25,
		EntryTime:         entry,
		TakeProfitPrice:   3.06,
		StopLossPrice:     0.51,
		TimeExitTimestamp: entry.Add(time.Hour),
		IsPaperTrade:      true,
		FillSignature:     "sig-" + id,
	}
}

func TestTradeStoreRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	s := NewTradeStore(pool)

	entry := time.Now().UTC().Truncate(time.Microsecond)
	tr := pgTrade("tr-1", "s-1", entry)
	require.NoError(t, s.Insert(ctx, tr))

	got, err := s.GetByID(ctx, "tr-1")
	require.NoError(t, err)
	assert.Equal(t, tr.StrategyID, got.StrategyID)
	assert.Equal(t, tr.TokenSymbol, got.TokenSymbol)
	assert.InDelta(t, 1.02, got.EntryPrice, 1e-9)
	assert.True(t, got.IsOpen())
	assert.Nil(t, got.ExitPrice)
	assert.Equal(t, "sig-tr-1", got.FillSignature)

	assert.ErrorIs(t, s.Insert(ctx, tr), storage.ErrDuplicateKey)
	_, err = s.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStoreUpdateClose(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	s := NewTradeStore(pool)

	entry := time.Now().UTC().Truncate(time.Microsecond)
	tr := pgTrade("tr-1", "s-1", entry)
	require.NoError(t, s.Insert(ctx, tr))

	exitTime := entry.Add(30 * time.Minute)
	tr.ExitPrice = ptr(3.136)
	tr.ExitTime = &exitTime
	tr.PnLSol = ptr(4.6676)
	tr.PnLPercent = ptr(2.0745)
	tr.ExitReason = domain.ExitReasonTakeProfit
	require.NoError(t, s.Update(ctx, tr))

	got, err := s.GetByID(ctx, "tr-1")
	require.NoError(t, err)
	assert.False(t, got.IsOpen())
	require.NotNil(t, got.ExitPrice)
	assert.InDelta(t, 3.136, *got.ExitPrice, 1e-9)
	require.NotNil(t, got.PnLSol)
	assert.InDelta(t, 4.6676, *got.PnLSol, 1e-9)
	assert.Equal(t, domain.ExitReasonTakeProfit, got.ExitReason)
	require.NotNil(t, got.ExitTime)
	assert.WithinDuration(t, exitTime, *got.ExitTime, time.Millisecond)

	assert.ErrorIs(t, s.Update(ctx, pgTrade("ghost", "s-1", entry)), storage.ErrNotFound)
}

func TestTradeStoreGetOpenAndByStrategy(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	s := NewTradeStore(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.Insert(ctx, pgTrade("tr-new", "a", base)))
	require.NoError(t, s.Insert(ctx, pgTrade("tr-old", "a", base.Add(-time.Hour))))

	closed := pgTrade("tr-closed", "b", base.Add(-2*time.Hour))
	closed.ExitPrice = ptr(2.0)
	closed.ExitTime = ptr(base)
	closed.PnLSol = ptr(1.0)
	closed.PnLPercent = ptr(0.5)
	closed.ExitReason = domain.ExitReasonManual
	require.NoError(t, s.Insert(ctx, closed))

	open, err := s.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "tr-old", open[0].ID, "entry time ascending")
	assert.Equal(t, "tr-new", open[1].ID)

	forA, err := s.GetByStrategy(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.DeleteAll(ctx))
	all, err = s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
