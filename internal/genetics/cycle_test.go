package genetics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evo-trader/internal/domain"
)

// populationWithPnL builds n genomes whose realized PnL descends so the
// fitness recomputed inside RunCycle ranks them first to last.
func populationWithPnL(e *Engine, n int) []*domain.StrategyGenome {
	pop := e.GenerateGenesis(n)
	for i, g := range pop {
		g.Performance.TotalPnL = 5 - float64(i)*0.5
	}
	return pop
}

func TestRunCycleGenerationTransition(t *testing.T) {
	e := newTestEngine(42)
	pop := populationWithPnL(e, 20)
	byID := make(map[string]*domain.StrategyGenome, len(pop))
	for _, g := range pop {
		byID[g.ID] = g
	}

	newPop, cycle := e.RunCycle(pop)

	require.NotNil(t, cycle)
	assert.Equal(t, 1, cycle.Generation)
	assert.Equal(t, 1, e.Generation())
	require.Len(t, newPop, 20, "population size is restored after a cycle")

	require.Len(t, cycle.SurvivorIDs, 4)
	require.Len(t, cycle.DeadIDs, 4)

	survivorSet := make(map[string]struct{}, len(cycle.SurvivorIDs))
	for _, id := range cycle.SurvivorIDs {
		survivorSet[id] = struct{}{}
		assert.Equal(t, domain.StatusActive, byID[id].Status)
	}
	for _, id := range cycle.DeadIDs {
		dead := byID[id]
		assert.Equal(t, domain.StatusDead, dead.Status)
		require.NotNil(t, dead.DeathTimestamp)
	}

	// Survivors are the top four by realized PnL.
	for i := 0; i < 4; i++ {
		assert.Contains(t, survivorSet, pop[i].ID)
	}

	for _, id := range cycle.NewlyBornIDs {
		var child *domain.StrategyGenome
		for _, g := range newPop {
			if g.ID == id {
				child = g
				break
			}
		}
		require.NotNil(t, child, "newborn must be part of the new population")
		assert.Equal(t, 1, child.Generation)
		require.Len(t, child.ParentIDs, 2)
		assert.Contains(t, survivorSet, child.ParentIDs[0])
		assert.Contains(t, survivorSet, child.ParentIDs[1])
	}

	assert.Equal(t, cycle.BestStrategyID, pop[0].ID)
	assert.InDelta(t, Fitness(pop[0].Performance), cycle.BestFitness, 1e-9)
}

func TestRunCycleEmptyPopulation(t *testing.T) {
	e := newTestEngine(1)
	newPop, cycle := e.RunCycle(nil)
	assert.Nil(t, cycle)
	assert.Empty(t, newPop)
	assert.Equal(t, 0, e.Generation())
}

func TestRunCycleSingleSurvivorCannotRefill(t *testing.T) {
	e := newTestEngine(5)
	pop := populationWithPnL(e, 6) // floor(6*0.2) = 1 survivor, 1 dead

	newPop, cycle := e.RunCycle(pop)

	require.NotNil(t, cycle)
	assert.Len(t, cycle.SurvivorIDs, 1)
	assert.Empty(t, cycle.NewlyBornIDs)
	assert.Len(t, newPop, 5, "survivor plus four mutators, no offspring possible")
}

func TestRepeatedCyclesTrackImprovingPerformance(t *testing.T) {
	e := newTestEngine(99)
	pop := e.GenerateGenesis(20)

	best := make([]float64, 0, 10)
	for cycleIdx := 0; cycleIdx < 10; cycleIdx++ {
		// Each round the live strategies close trades that get better
		// over time, with a per-strategy spread so selection has a
		// gradient to work with.
		for i, g := range pop {
			if g.Status == domain.StatusDead {
				continue
			}
			pnl := 0.1*float64(cycleIdx) + 0.05*float64(i%5) - 0.1
			g.Performance = ApplyTrade(g.Performance, pnl, pnl/2, 30)
		}

		newPop, cycle := e.RunCycle(pop)
		require.NotNil(t, cycle)
		best = append(best, cycle.BestFitness)
		pop = newPop
	}

	early := (best[0] + best[1] + best[2]) / 3
	late := (best[7] + best[8] + best[9]) / 3
	assert.GreaterOrEqual(t, late, 0.8*early,
		"best fitness must not collapse while inputs improve (early %.2f late %.2f)", early, late)
	assert.Equal(t, 10, e.Generation())
}
