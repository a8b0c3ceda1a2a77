package evolution

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evo-trader/internal/domain"
	"evo-trader/internal/events"
	"evo-trader/internal/genetics"
	"evo-trader/internal/storage/memory"
	"evo-trader/internal/treasury"
)

type schedHarness struct {
	sched      *Scheduler
	engine     *genetics.Engine
	strategies *memory.StrategyStore
	cycles     *memory.CycleStore
	treasuryDB *memory.TreasuryStore
	manager    *treasury.Manager
	bus        *events.Bus
}

func newSchedHarness(t *testing.T, seed int64) *schedHarness {
	t.Helper()
	engine := genetics.NewEngine(genetics.DefaultConfig(), rand.New(rand.NewSource(seed)), zerolog.Nop())
	strategies := memory.NewStrategyStore()
	cycles := memory.NewCycleStore()
	treasuryDB := memory.NewTreasuryStore()
	manager := treasury.NewManager(10, 0.1, 5, zerolog.Nop())
	bus := events.NewBus(zerolog.Nop())

	sched := New(engine, strategies, cycles, treasuryDB, manager, bus, time.Hour, zerolog.Nop())
	return &schedHarness{
		sched: sched, engine: engine, strategies: strategies,
		cycles: cycles, treasuryDB: treasuryDB, manager: manager, bus: bus,
	}
}

func (h *schedHarness) seedPopulation(t *testing.T, n int) {
	t.Helper()
	ctx := context.Background()
	pop := h.engine.GenerateGenesis(n)
	for i, g := range pop {
		g.Performance.TotalPnL = 2 - float64(i)*0.2
		require.NoError(t, h.strategies.Insert(ctx, g))
	}
}

func TestRunCyclePersistsGeneration(t *testing.T) {
	ctx := context.Background()
	h := newSchedHarness(t, 42)
	h.seedPopulation(t, 20)

	require.NoError(t, h.sched.RunCycle(ctx))

	cycle, err := h.cycles.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cycle.Generation)
	assert.Len(t, cycle.SurvivorIDs, 4)
	assert.Len(t, cycle.DeadIDs, 4)

	all, err := h.strategies.GetAll(ctx)
	require.NoError(t, err)
	// 16 living from before the cycle plus newborns plus 4 graveyard rows.
	assert.Len(t, all, 20+len(cycle.NewlyBornIDs))

	active, err := h.strategies.GetByStatus(ctx, domain.StatusActive)
	require.NoError(t, err)
	assert.Len(t, active, 20, "population size restored")

	for _, id := range cycle.DeadIDs {
		g, err := h.strategies.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDead, g.Status)
		assert.NotNil(t, g.DeathTimestamp)
	}

	// Treasury reallocated over the new actives and persisted.
	saved, err := h.treasuryDB.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, saved.Allocations, 20)
}

func TestRunCycleEventSequence(t *testing.T) {
	ctx := context.Background()
	h := newSchedHarness(t, 7)
	h.seedPopulation(t, 20)

	sub := h.bus.Subscribe(64, events.TopicEvolution)
	defer sub.Close()

	require.NoError(t, h.sched.RunCycle(ctx))

	var kinds []events.Kind
	for len(kinds) < 4 {
		select {
		case evt := <-sub.Events():
			kinds = append(kinds, evt.Kind)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %v", kinds)
		}
	}
	assert.Equal(t, []events.Kind{
		events.KindEvolutionStarted,
		events.KindEvolutionBirths,
		events.KindEvolutionDeaths,
		events.KindEvolutionCompleted,
	}, kinds)
}

func TestRunCycleEmptyPopulationIsNoop(t *testing.T) {
	ctx := context.Background()
	h := newSchedHarness(t, 1)

	require.NoError(t, h.sched.RunCycle(ctx))

	_, err := h.cycles.Latest(ctx)
	assert.Error(t, err, "no cycle record for an empty population")
}

func TestStartRestoresGeneration(t *testing.T) {
	ctx := context.Background()
	h := newSchedHarness(t, 3)

	require.NoError(t, h.cycles.Insert(ctx, &domain.EvolutionCycle{
		Generation: 7,
		Timestamp:  time.Now().UTC(),
	}))

	require.NoError(t, h.sched.Start(ctx))
	defer h.sched.Stop()

	assert.Equal(t, 7, h.engine.Generation())
}

func TestTriggerNowCoalesces(t *testing.T) {
	h := newSchedHarness(t, 5)

	assert.True(t, h.sched.TriggerNow())
	assert.False(t, h.sched.TriggerNow(), "second trigger rides the pending one")
}

func TestTriggeredCycleRuns(t *testing.T) {
	ctx := context.Background()
	h := newSchedHarness(t, 11)
	h.seedPopulation(t, 10)

	require.NoError(t, h.sched.Start(ctx))
	defer h.sched.Stop()

	require.True(t, h.sched.TriggerNow())

	require.Eventually(t, func() bool {
		_, err := h.cycles.Latest(ctx)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond, "triggered cycle must persist a record")
}

func TestRunCycleSkipsGraveyard(t *testing.T) {
	ctx := context.Background()
	h := newSchedHarness(t, 13)
	h.seedPopulation(t, 10)

	// A pre-existing corpse must not rejoin the population.
	now := time.Now().UTC()
	corpse := h.engine.GenerateGenesis(1)[0]
	corpse.ID = "corpse-1"
	corpse.Status = domain.StatusDead
	corpse.DeathTimestamp = &now
	require.NoError(t, h.strategies.Insert(ctx, corpse))

	sub := h.bus.Subscribe(8, events.TopicEvolution)
	defer sub.Close()

	require.NoError(t, h.sched.RunCycle(ctx))

	evt := <-sub.Events()
	require.Equal(t, events.KindEvolutionStarted, evt.Kind)
	payload, ok := evt.Payload.(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 10, payload["population"], "dead strategies stay out of the cycle")
}

func TestRunCycleDuplicateGenerationTolerated(t *testing.T) {
	ctx := context.Background()
	h := newSchedHarness(t, 17)
	h.seedPopulation(t, 10)

	// A record for the upcoming generation already exists, as after a
	// crash between the cycle write and the restart.
	require.NoError(t, h.cycles.Insert(ctx, &domain.EvolutionCycle{
		Generation: 1,
		Timestamp:  time.Now().UTC(),
	}))

	assert.NoError(t, h.sched.RunCycle(ctx), "duplicate generation must not fail the cycle")
}
