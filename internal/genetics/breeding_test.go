package genetics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evo-trader/internal/domain"
)

func TestCrossoverIdenticalParents(t *testing.T) {
	e := newTestEngine(7)
	a := e.GenerateGenesis(1)[0].Genes

	child := e.Crossover(a, a)
	assert.Equal(t, a, child)
}

func TestCrossoverFieldsComeFromParents(t *testing.T) {
	e := newTestEngine(11)
	pop := e.GenerateGenesis(2)
	a, b := pop[0].Genes, pop[1].Genes

	for i := 0; i < 50; i++ {
		child := e.Crossover(a, b)

		assert.Contains(t, []float64{a.EntryMcapMin, b.EntryMcapMin}, child.EntryMcapMin)
		assert.Contains(t, []float64{a.TakeProfitMultiplier, b.TakeProfitMultiplier}, child.TakeProfitMultiplier)
		assert.Contains(t, []int{a.MaxSimultaneousPositions, b.MaxSimultaneousPositions}, child.MaxSimultaneousPositions)

		// Whale wallets are unioned, never coin-flipped.
		for _, w := range a.WhaleWallets {
			assert.Contains(t, child.WhaleWallets, w)
		}
		for _, w := range b.WhaleWallets {
			assert.Contains(t, child.WhaleWallets, w)
		}

		assert.True(t, child.SellSignals.MomentumReversal)
		assert.True(t, child.SellSignals.VolumeDry)
		assert.True(t, child.SellSignals.HoldersDumping)
	}
}

func TestMutateZeroRateIsIdentity(t *testing.T) {
	e := newTestEngine(13)
	g := e.GenerateGenesis(1)[0].Genes

	out := e.Mutate(g, 0)
	assert.Equal(t, g, out)
}

func TestMutateStaysInRange(t *testing.T) {
	e := newTestEngine(17)
	g := e.GenerateGenesis(1)[0].Genes

	for i := 0; i < 200; i++ {
		g = e.Mutate(g, 1.0)
		assertGenesInRange(t, g)
		assert.LessOrEqual(t, g.EntryMcapMin, g.EntryMcapMax)
	}
}

func TestBreed(t *testing.T) {
	e := newTestEngine(19)
	e.SetGeneration(4)
	pop := e.GenerateGenesis(2)
	a, b := pop[0], pop[1]

	child := e.Breed(a, b)

	require.NotNil(t, child)
	assert.NotEmpty(t, child.ID)
	assert.NotEqual(t, a.ID, child.ID)
	assert.NotEmpty(t, child.Name)
	assert.Equal(t, 5, child.Generation)
	assert.Equal(t, []string{a.ID, b.ID}, child.ParentIDs)
	assert.Equal(t, domain.StatusActive, child.Status)
	assert.Equal(t, ArchetypeOf(child.Genes), child.Archetype)
	assert.Zero(t, child.Performance.TradesExecuted)
	assert.False(t, child.BirthTimestamp.IsZero())
}
