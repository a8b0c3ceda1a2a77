// Package genetics implements the evolutionary optimizer: genesis
// population generation, fitness scoring, selection, crossover, mutation
// and whole-cycle orchestration. Everything here is pure computation over
// an injected rand source; no I/O, no suspension.
package genetics

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
	"evo-trader/internal/randutil"
)

// Config tunes the evolutionary loop.
type Config struct {
	PopulationSize  int     // target population after a cycle
	SurvivorPercent float64 // top fraction kept as-is
	DeadPercent     float64 // bottom fraction retired
	MutationRate    float64 // per-gene mutation probability
}

// DefaultConfig returns the standard evolution parameters.
func DefaultConfig() Config {
	return Config{
		PopulationSize:  20,
		SurvivorPercent: 0.2,
		DeadPercent:     0.2,
		MutationRate:    0.15,
	}
}

// Engine runs the genetic algorithm over strategy genomes.
type Engine struct {
	cfg        Config
	rng        *rand.Rand
	log        zerolog.Logger
	generation int
}

// NewEngine creates an engine with an injected rand source so cycles are
// reproducible under a fixed seed.
func NewEngine(cfg Config, rng *rand.Rand, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg: cfg,
		rng: rng,
		log: logger.With().Str("component", "genetics").Logger(),
	}
}

// Generation returns the current generation counter.
func (e *Engine) Generation() int {
	return e.generation
}

// SetGeneration restores the counter, used when resuming from storage.
func (e *Engine) SetGeneration(gen int) {
	if gen >= 0 {
		e.generation = gen
	}
}

// GenerateGenesis produces n generation-zero genomes with genes drawn
// uniformly from the documented ranges.
func (e *Engine) GenerateGenesis(n int) []*domain.StrategyGenome {
	out := make([]*domain.StrategyGenome, 0, n)
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		genes := e.randomGenes()
		out = append(out, &domain.StrategyGenome{
			ID:             uuid.NewString(),
			Name:           randutil.StrategyName(e.rng),
			Generation:     0,
			ParentIDs:      nil,
			Genes:          genes,
			Performance:    domain.NewPerformance(),
			Status:         domain.StatusActive,
			Archetype:      ArchetypeOf(genes),
			BirthTimestamp: now,
		})
	}
	e.log.Info().Int("count", len(out)).Msg("genesis population generated")
	return out
}

func (e *Engine) randomGenes() domain.Genes {
	r := e.rng

	mcapMin := randutil.Float64In(r, envEntryMcapMin.Min, envEntryMcapMin.Max)
	mcapMax := randutil.Float64In(r, mcapMin, envEntryMcapMax.Max)
	if mcapMax < envEntryMcapMax.Min {
		mcapMax = envEntryMcapMax.Min
	}

	// Roughly a third of genesis strategies follow whales.
	var whales []string
	if r.Float64() < 0.35 {
		for i := 0; i < randutil.IntIn(r, 1, 2); i++ {
			whales = append(whales, e.randomWallet())
		}
	}

	var keywords []string
	if k := randutil.IntIn(r, 0, 3); k > 0 {
		keywords = randutil.SampleSet(r, keywordPool, k)
	}

	return domain.Genes{
		EntryMcapMin:   mcapMin,
		EntryMcapMax:   mcapMax,
		EntryVolumeMin: randutil.Float64In(r, envEntryVolumeMin.Min, envEntryVolumeMin.Max),
		SocialSignals: domain.SocialSignals{
			TwitterFollowers: randutil.IntIn(r, int(envTwitterFollowers.Min), int(envTwitterFollowers.Max)),
			TelegramMembers:  randutil.IntIn(r, int(envTelegramMembers.Min), int(envTelegramMembers.Max)),
			HoldersMin:       randutil.IntIn(r, int(envHoldersMin.Min), int(envHoldersMin.Max)),
		},
		BuyPatterns:       randutil.SampleSet(r, domain.BuyPatternCatalog, randutil.IntIn(r, 2, 5)),
		WhaleWallets:      whales,
		TokenNameKeywords: keywords,

		TakeProfitMultiplier: randutil.Float64In(r, envTakeProfit.Min, envTakeProfit.Max),
		StopLossMultiplier:   randutil.Float64In(r, envStopLoss.Min, envStopLoss.Max),
		TimeBasedExit:        randutil.Float64In(r, envTimeBasedExit.Min, envTimeBasedExit.Max),
		VolumeDropExit:       randutil.Float64In(r, envVolumeDropExit.Min, envVolumeDropExit.Max),

		SellSignals: domain.SellSignals{
			MomentumReversal: true,
			VolumeDry:        true,
			HoldersDumping:   true,
			McapCeiling:      randutil.Float64In(r, envMcapCeiling.Min, envMcapCeiling.Max),
			ProfitSecuring:   randutil.Float64In(r, envProfitSecuring.Min, envProfitSecuring.Max),
			TrailingStop:     randutil.Float64In(r, envTrailingStop.Min, envTrailingStop.Max),
		},
		SellPatterns: randutil.SampleSet(r, domain.SellPatternCatalog, randutil.IntIn(r, 1, 4)),

		InvestmentPercent:        randutil.Float64In(r, 0.05, 0.5),
		MaxSimultaneousPositions: randutil.IntIn(r, int(envMaxPositions.Min), int(envMaxPositions.Max)),
		MaxDrawdown:              randutil.Float64In(r, envMaxDrawdown.Min, envMaxDrawdown.Max),
		Diversification:          randutil.Float64In(r, envDiversification.Min, envDiversification.Max),
	}
}

// randomWallet synthesizes an opaque base58 wallet identifier.
func (e *Engine) randomWallet() string {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = byte(e.rng.Intn(256))
	}
	return base58.Encode(buf)
}
