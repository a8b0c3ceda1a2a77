package genetics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evo-trader/internal/domain"
)

// populationWithFitness builds n genomes with fitness 100, 95, 90, ...
func populationWithFitness(e *Engine, n int) []*domain.StrategyGenome {
	pop := e.GenerateGenesis(n)
	for i, g := range pop {
		g.ID = fmt.Sprintf("s-%03d", i)
		g.Performance.FitnessScore = float64(100 - i*5)
	}
	return pop
}

func TestSelectSplitsByFitness(t *testing.T) {
	e := newTestEngine(42)
	pop := populationWithFitness(e, 20)

	sel := e.Select(pop)

	require.Len(t, sel.Survivors, 4)
	require.Len(t, sel.Mutators, 12)
	require.Len(t, sel.Dead, 4)

	survivorFitness := make([]float64, 0, 4)
	for _, g := range sel.Survivors {
		survivorFitness = append(survivorFitness, g.Performance.FitnessScore)
	}
	assert.Equal(t, []float64{100, 95, 90, 85}, survivorFitness)

	deadFitness := make([]float64, 0, 4)
	for _, g := range sel.Dead {
		deadFitness = append(deadFitness, g.Performance.FitnessScore)
		assert.Equal(t, domain.StatusDead, g.Status)
		require.NotNil(t, g.DeathTimestamp)
	}
	assert.Equal(t, []float64{20, 15, 10, 5}, deadFitness)

	for _, g := range sel.Mutators {
		assert.NotEqual(t, domain.StatusDead, g.Status)
	}
}

func TestSelectIgnoresAlreadyDead(t *testing.T) {
	e := newTestEngine(1)
	pop := populationWithFitness(e, 10)
	pop[0].Status = domain.StatusDead

	sel := e.Select(pop)

	total := len(sel.Survivors) + len(sel.Mutators) + len(sel.Dead)
	assert.Equal(t, 9, total)
	for _, g := range sel.Survivors {
		assert.NotEqual(t, "s-000", g.ID)
	}
}

func TestSelectTinyPopulation(t *testing.T) {
	e := newTestEngine(3)

	// floor(4*0.2) = 0: nobody survives, nobody dies, all mutate.
	pop := populationWithFitness(e, 4)
	sel := e.Select(pop)
	assert.Empty(t, sel.Survivors)
	assert.Empty(t, sel.Dead)
	assert.Len(t, sel.Mutators, 4)
}

func TestFitnessBounds(t *testing.T) {
	tests := []struct {
		name string
		perf domain.Performance
	}{
		{"zero", domain.Performance{}},
		{"big winner", domain.Performance{TotalPnL: 1000, WinRate: 1, SharpeRatio: 10}},
		{"big loser", domain.Performance{TotalPnL: -1000, WinRate: 0, SharpeRatio: -10, MaxDrawdown: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := Fitness(tc.perf)
			assert.GreaterOrEqual(t, f, 0.0)
			assert.LessOrEqual(t, f, 100.0)
		})
	}
}

func TestFitnessOfFreshGenome(t *testing.T) {
	// A genome with no trades scores the neutral blend: pnl 50, win 0,
	// sharpe 50, consistency 100.
	f := Fitness(domain.Performance{})
	assert.InDelta(t, 0.4*50+0.2*50+0.15*100, f, 1e-9)
}

func TestApplyTrade(t *testing.T) {
	p := domain.NewPerformance()

	p = ApplyTrade(p, 2.0, 0.4, 30)
	assert.Equal(t, 1, p.TradesExecuted)
	assert.Equal(t, 1.0, p.WinRate)
	assert.InDelta(t, 2.0, p.TotalPnL, 1e-9)
	assert.InDelta(t, 30, p.AvgHoldTime, 1e-9)
	assert.Positive(t, p.SharpeRatio)
	assert.Zero(t, p.MaxDrawdown)

	p = ApplyTrade(p, -1.0, -0.25, 10)
	assert.Equal(t, 2, p.TradesExecuted)
	assert.InDelta(t, 0.5, p.WinRate, 1e-9)
	assert.InDelta(t, 1.0, p.TotalPnL, 1e-9)
	assert.InDelta(t, 20, p.AvgHoldTime, 1e-9)
	assert.InDelta(t, 0.25, p.MaxDrawdown, 1e-9, "worst single-trade loss fraction")

	// A shallower loss must not shrink the recorded drawdown.
	p = ApplyTrade(p, -0.1, -0.05, 5)
	assert.InDelta(t, 0.25, p.MaxDrawdown, 1e-9)
}
