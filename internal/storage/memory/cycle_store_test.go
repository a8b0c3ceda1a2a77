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

func testCycle(generation int) *domain.EvolutionCycle {
	return &domain.EvolutionCycle{
		Generation:   generation,
		Timestamp:    time.Now().UTC(),
		SurvivorIDs:  []string{"s-1"},
		DeadIDs:      []string{"s-9"},
		NewlyBornIDs: []string{"s-10"},
		AvgFitness:   55.5,
		BestFitness:  88.8,
	}
}

func TestCycleInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewCycleStore()

	require.NoError(t, s.Insert(ctx, testCycle(1)))

	got, err := s.GetByGeneration(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1"}, got.SurvivorIDs)
	assert.InDelta(t, 88.8, got.BestFitness, 1e-9)

	_, err = s.GetByGeneration(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCycleDuplicateGeneration(t *testing.T) {
	ctx := context.Background()
	s := NewCycleStore()

	require.NoError(t, s.Insert(ctx, testCycle(1)))
	assert.ErrorIs(t, s.Insert(ctx, testCycle(1)), storage.ErrDuplicateKey)
	assert.ErrorIs(t, s.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, s.Insert(ctx, testCycle(-1)), storage.ErrInvalidInput)
}

func TestCycleLatestAndGetAll(t *testing.T) {
	ctx := context.Background()
	s := NewCycleStore()

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Insert(ctx, testCycle(2)))
	require.NoError(t, s.Insert(ctx, testCycle(1)))
	require.NoError(t, s.Insert(ctx, testCycle(3)))

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Generation)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, c := range all {
		assert.Equal(t, i+1, c.Generation, "ascending by generation")
	}
}

func TestCycleCopySemantics(t *testing.T) {
	ctx := context.Background()
	s := NewCycleStore()

	c := testCycle(1)
	require.NoError(t, s.Insert(ctx, c))
	c.SurvivorIDs[0] = "mutated"

	got, err := s.GetByGeneration(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.SurvivorIDs[0])
}

func TestCycleDeleteAll(t *testing.T) {
	ctx := context.Background()
	s := NewCycleStore()

	require.NoError(t, s.Insert(ctx, testCycle(1)))
	require.NoError(t, s.DeleteAll(ctx))

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
