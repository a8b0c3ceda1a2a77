package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

func testTrade(id, strategyID string, entry time.Time) *domain.Trade {
	return &domain.Trade{
		ID:                id,
		StrategyID:        strategyID,
		TokenAddress:      "tok-1",
		EntryPrice:        1.02,
		AmountSol:         2.25,
		EntryTime:         entry,
		TakeProfitPrice:   3.06,
		StopLossPrice:     0.51,
		TimeExitTimestamp: entry.Add(time.Hour),
		IsPaperTrade:      true,
	}
}

func closeTrade(t *domain.Trade, exitPrice float64) *domain.Trade {
	c := *t
	pnlPct := (exitPrice - t.EntryPrice) / t.EntryPrice
	pnlSol := pnlPct * t.AmountSol
	now := t.EntryTime.Add(30 * time.Minute)
	c.ExitPrice = &exitPrice
	c.ExitTime = &now
	c.PnLSol = &pnlSol
	c.PnLPercent = &pnlPct
	c.ExitReason = domain.ExitReasonTakeProfit
	return &c
}

func TestTradeInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore()
	now := time.Now().UTC()

	tr := testTrade("tr-1", "s-1", now)
	require.NoError(t, s.Insert(ctx, tr))

	got, err := s.GetByID(ctx, "tr-1")
	require.NoError(t, err)
	assert.True(t, got.IsOpen())
	assert.InDelta(t, 1.02, got.EntryPrice, 1e-9)

	assert.ErrorIs(t, s.Insert(ctx, tr), storage.ErrDuplicateKey)
	assert.ErrorIs(t, s.Insert(ctx, nil), storage.ErrInvalidInput)

	_, err = s.GetByID(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeUpdateClose(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore()
	now := time.Now().UTC()

	tr := testTrade("tr-1", "s-1", now)
	require.NoError(t, s.Insert(ctx, tr))
	require.NoError(t, s.Update(ctx, closeTrade(tr, 3.136)))

	got, err := s.GetByID(ctx, "tr-1")
	require.NoError(t, err)
	assert.False(t, got.IsOpen())
	require.NotNil(t, got.ExitPrice)
	assert.InDelta(t, 3.136, *got.ExitPrice, 1e-9)
	assert.Equal(t, domain.ExitReasonTakeProfit, got.ExitReason)

	assert.ErrorIs(t, s.Update(ctx, testTrade("ghost", "s-1", now)), storage.ErrNotFound)
}

func TestTradeGetOpen(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore()
	base := time.Now().UTC()

	older := testTrade("tr-old", "s-1", base.Add(-time.Hour))
	newer := testTrade("tr-new", "s-1", base)
	closed := closeTrade(testTrade("tr-closed", "s-1", base.Add(-2*time.Hour)), 2.0)

	require.NoError(t, s.Insert(ctx, newer))
	require.NoError(t, s.Insert(ctx, older))
	require.NoError(t, s.Insert(ctx, closed))

	open, err := s.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "tr-old", open[0].ID, "ordered by entry time ascending")
	assert.Equal(t, "tr-new", open[1].ID)
}

func TestTradeGetByStrategy(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore()
	base := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, testTrade("tr-a1", "a", base)))
	require.NoError(t, s.Insert(ctx, testTrade("tr-a2", "a", base.Add(time.Minute))))
	require.NoError(t, s.Insert(ctx, testTrade("tr-b1", "b", base)))

	trades, err := s.GetByStrategy(ctx, "a")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	for _, tr := range trades {
		assert.Equal(t, "a", tr.StrategyID)
	}

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTradeCopySemantics(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore()

	tr := testTrade("tr-1", "s-1", time.Now().UTC())
	require.NoError(t, s.Insert(ctx, tr))

	got, err := s.GetByID(ctx, "tr-1")
	require.NoError(t, err)

	// Mutating a returned copy must not leak into the store.
	price := 9.9
	got.ExitPrice = &price
	again, err := s.GetByID(ctx, "tr-1")
	require.NoError(t, err)
	assert.Nil(t, again.ExitPrice)
}

func TestTradeDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore()

	require.NoError(t, s.Insert(ctx, testTrade("tr-1", "s-1", time.Now().UTC())))
	require.NoError(t, s.DeleteAll(ctx))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
