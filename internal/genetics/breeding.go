package genetics

import (
	"math"
	"time"

	"github.com/google/uuid"

	"evo-trader/internal/domain"
	"evo-trader/internal/randutil"
)

// Crossover combines two gene bundles: every scalar and every set is
// taken from parent a or b with independent probability 0.5. Exception:
// whale wallets are the union of both parents, so a useful wallet is
// never lost to a coin flip.
func (e *Engine) Crossover(a, b domain.Genes) domain.Genes {
	r := e.rng
	pick := func(va, vb float64) float64 {
		if r.Float64() < 0.5 {
			return va
		}
		return vb
	}
	pickInt := func(va, vb int) int {
		if r.Float64() < 0.5 {
			return va
		}
		return vb
	}
	pickSet := func(va, vb []string) []string {
		if r.Float64() < 0.5 {
			return append([]string(nil), va...)
		}
		return append([]string(nil), vb...)
	}

	child := domain.Genes{
		EntryMcapMin:   pick(a.EntryMcapMin, b.EntryMcapMin),
		EntryMcapMax:   pick(a.EntryMcapMax, b.EntryMcapMax),
		EntryVolumeMin: pick(a.EntryVolumeMin, b.EntryVolumeMin),
		SocialSignals: domain.SocialSignals{
			TwitterFollowers: pickInt(a.SocialSignals.TwitterFollowers, b.SocialSignals.TwitterFollowers),
			TelegramMembers:  pickInt(a.SocialSignals.TelegramMembers, b.SocialSignals.TelegramMembers),
			HoldersMin:       pickInt(a.SocialSignals.HoldersMin, b.SocialSignals.HoldersMin),
		},
		BuyPatterns:       pickSet(a.BuyPatterns, b.BuyPatterns),
		WhaleWallets:      unionSet(a.WhaleWallets, b.WhaleWallets),
		TokenNameKeywords: pickSet(a.TokenNameKeywords, b.TokenNameKeywords),

		TakeProfitMultiplier: pick(a.TakeProfitMultiplier, b.TakeProfitMultiplier),
		StopLossMultiplier:   pick(a.StopLossMultiplier, b.StopLossMultiplier),
		TimeBasedExit:        pick(a.TimeBasedExit, b.TimeBasedExit),
		VolumeDropExit:       pick(a.VolumeDropExit, b.VolumeDropExit),

		SellSignals: domain.SellSignals{
			MomentumReversal: true,
			VolumeDry:        true,
			HoldersDumping:   true,
			McapCeiling:      pick(a.SellSignals.McapCeiling, b.SellSignals.McapCeiling),
			ProfitSecuring:   pick(a.SellSignals.ProfitSecuring, b.SellSignals.ProfitSecuring),
			TrailingStop:     pick(a.SellSignals.TrailingStop, b.SellSignals.TrailingStop),
		},
		SellPatterns: pickSet(a.SellPatterns, b.SellPatterns),

		InvestmentPercent:        pick(a.InvestmentPercent, b.InvestmentPercent),
		MaxSimultaneousPositions: pickInt(a.MaxSimultaneousPositions, b.MaxSimultaneousPositions),
		MaxDrawdown:              pick(a.MaxDrawdown, b.MaxDrawdown),
		Diversification:          pick(a.Diversification, b.Diversification),
	}
	return child
}

// Mutate returns a perturbed copy of the gene bundle. Each mutable scalar
// is replaced with clamp(v*(1+U(-0.2,0.2)), fieldMin, fieldMax) with
// probability rate; pattern sets gain or lose a single element. The three
// sell-signal booleans stay true; only their thresholds mutate.
func (e *Engine) Mutate(g domain.Genes, rate float64) domain.Genes {
	r := e.rng
	out := g.Clone()

	mut := func(v *float64, env envelope) {
		if r.Float64() < rate {
			*v = randutil.MutateFactor(r, *v, 0.2, env.Min, env.Max)
		}
	}
	mutInt := func(v *int, env envelope) {
		if r.Float64() < rate {
			f := randutil.MutateFactor(r, float64(*v), 0.2, env.Min, env.Max)
			*v = int(math.Round(f))
		}
	}

	mut(&out.EntryMcapMin, envEntryMcapMin)
	mut(&out.EntryMcapMax, envEntryMcapMax)
	if out.EntryMcapMax < out.EntryMcapMin {
		out.EntryMcapMin, out.EntryMcapMax = out.EntryMcapMax, out.EntryMcapMin
	}
	mut(&out.EntryVolumeMin, envEntryVolumeMin)

	mutInt(&out.SocialSignals.TwitterFollowers, envTwitterFollowers)
	mutInt(&out.SocialSignals.TelegramMembers, envTelegramMembers)
	mutInt(&out.SocialSignals.HoldersMin, envHoldersMin)

	mut(&out.TakeProfitMultiplier, envTakeProfit)
	mut(&out.StopLossMultiplier, envStopLoss)
	mut(&out.TimeBasedExit, envTimeBasedExit)
	mut(&out.VolumeDropExit, envVolumeDropExit)

	mut(&out.SellSignals.McapCeiling, envMcapCeiling)
	mut(&out.SellSignals.ProfitSecuring, envProfitSecuring)
	mut(&out.SellSignals.TrailingStop, envTrailingStop)

	mut(&out.InvestmentPercent, envInvestmentPercent)
	mutInt(&out.MaxSimultaneousPositions, envMaxPositions)
	mut(&out.MaxDrawdown, envMaxDrawdown)
	mut(&out.Diversification, envDiversification)

	out.BuyPatterns = e.mutateSet(out.BuyPatterns, domain.BuyPatternCatalog, maxBuyPatterns, rate)
	out.TokenNameKeywords = e.mutateSet(out.TokenNameKeywords, keywordPool, maxKeywords, rate)
	out.SellPatterns = e.mutateSet(out.SellPatterns, domain.SellPatternCatalog, maxSellPatterns, rate)

	return out
}

// mutateSet adds a fresh catalog element (coin flip, if under cap) or
// removes a random one (if at least two would remain).
func (e *Engine) mutateSet(set, catalog []string, limit int, rate float64) []string {
	r := e.rng
	if r.Float64() >= rate {
		return set
	}

	if r.Float64() < 0.5 && len(set) < limit {
		fresh := make([]string, 0, len(catalog))
		for _, tag := range catalog {
			if !randutil.Contains(set, tag) {
				fresh = append(fresh, tag)
			}
		}
		if len(fresh) > 0 {
			return append(set, randutil.Pick(r, fresh))
		}
		return set
	}

	if len(set) >= 2 {
		i := r.Intn(len(set))
		return append(set[:i:i], set[i+1:]...)
	}
	return set
}

// Breed produces a child genome: crossover of both parents, then mutation
// at half the configured rate. The child joins the next generation.
func (e *Engine) Breed(a, b *domain.StrategyGenome) *domain.StrategyGenome {
	genes := e.Mutate(e.Crossover(a.Genes, b.Genes), e.cfg.MutationRate/2)
	return &domain.StrategyGenome{
		ID:             uuid.NewString(),
		Name:           randutil.StrategyName(e.rng),
		Generation:     e.generation + 1,
		ParentIDs:      []string{a.ID, b.ID},
		Genes:          genes,
		Performance:    domain.NewPerformance(),
		Status:         domain.StatusActive,
		Archetype:      ArchetypeOf(genes),
		BirthTimestamp: time.Now().UTC(),
	}
}

func unionSet(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, v := range b {
		if !randutil.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
