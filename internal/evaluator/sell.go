package evaluator

import (
	"fmt"
	"math"
	"time"

	"evo-trader/internal/domain"
)

// Urgency levels, ordered.
const (
	UrgencyImmediate = "immediate"
	UrgencySoon      = "soon"
	UrgencyConsider  = "consider"
	UrgencyHold      = "hold"
)

// SellDecision is the structured outcome of the exit evaluation.
type SellDecision struct {
	ShouldSell           bool     `json:"should_sell"`
	Urgency              string   `json:"urgency"`
	Score                float64  `json:"score"`
	MatchedPatterns      []string `json:"matched_patterns"`
	Reasons              []string `json:"reasons"`
	SuggestedExitPercent float64  `json:"suggested_exit_percent"` // 0, 0.5, 0.75 or 1.0
}

// Exit scoring weights. Urgency transitions sit exactly at 15, 25, 40.
const (
	scoreMomentumReversal = 30
	scoreVolumeDry        = 25
	scoreHolderExodus     = 20
	scoreHardDrawdown     = 35
	scoreMcapCeiling      = 35
	scoreProfitTarget     = 25
	scoreTrailingStop     = 40
	scorePerSellPattern   = 15
	scoreTimeDecay        = 15

	sellScoreThreshold = 25
)

// ShouldSell scores an open position against one genome's exit genes.
// Signals are independent and additive; previous may be nil, in which
// case every delta-based signal reads zero. now is injected so held-time
// rules are deterministic under test.
func ShouldSell(genes domain.Genes, pos *domain.Position, current, previous *domain.Token, now time.Time) SellDecision {
	d := SellDecision{Urgency: UrgencyHold}

	ctx := sellContext{
		pnlPct:       pos.UnrealizedPnLPercent,
		heldMinutes:  now.Sub(pos.OpenedAt).Minutes(),
		entryPrice:   pos.Trade.EntryPrice,
		currentPrice: current.PriceUSD,
	}
	if previous != nil {
		if previous.PriceUSD > 0 {
			ctx.priceDelta = (current.PriceUSD - previous.PriceUSD) / previous.PriceUSD
		}
		if previous.Volume24h > 0 {
			ctx.volumeDelta = (current.Volume24h - previous.Volume24h) / previous.Volume24h
		}
		if previous.Liquidity > 0 {
			ctx.liqDelta = (current.Liquidity - previous.Liquidity) / previous.Liquidity
		}
		ctx.holdersDelta = current.Holders - previous.Holders
	}

	hit := func(points float64, pattern, reason string) {
		d.Score += points
		d.MatchedPatterns = append(d.MatchedPatterns, pattern)
		d.Reasons = append(d.Reasons, reason)
	}

	if genes.SellSignals.MomentumReversal && ctx.pnlPct > 0.05 && ctx.priceDelta < -0.05 {
		hit(scoreMomentumReversal, "momentum_death",
			fmt.Sprintf("Momentum reversing: price %.1f%% off previous while up %.1f%%", ctx.priceDelta*100, ctx.pnlPct*100))
	}

	if genes.SellSignals.VolumeDry && ctx.volumeDelta < -0.3 {
		hit(scoreVolumeDry, "volume_collapse",
			fmt.Sprintf("Volume drying up: %.1f%% vs previous", ctx.volumeDelta*100))
	}

	if genes.SellSignals.HoldersDumping && ctx.holdersDelta < -5 {
		hit(scoreHolderExodus, "holder_exodus",
			fmt.Sprintf("Holders leaving: %d since previous snapshot", ctx.holdersDelta))
	}

	if ctx.pnlPct < -0.10 {
		hit(scoreHardDrawdown, "price_dump",
			fmt.Sprintf("Hard drawdown: %.1f%%", ctx.pnlPct*100))
	}

	if genes.SellSignals.McapCeiling > 0 && current.MarketCap >= genes.SellSignals.McapCeiling {
		hit(scoreMcapCeiling, "mcap_ceiling",
			fmt.Sprintf("Market cap %.0f at ceiling %.0f", current.MarketCap, genes.SellSignals.McapCeiling))
	}

	if genes.SellSignals.ProfitSecuring > 0 && ctx.pnlPct >= genes.SellSignals.ProfitSecuring {
		hit(scoreProfitTarget, "profit_secure",
			fmt.Sprintf("Profit target reached: %.1f%% >= %.1f%%", ctx.pnlPct*100, genes.SellSignals.ProfitSecuring*100))
	}

	if genes.SellSignals.TrailingStop > 0 {
		peak := math.Max(pos.Trade.EntryPrice, current.PriceUSD)
		if previous != nil {
			peak = math.Max(peak, previous.PriceUSD)
		}
		// Inclusive boundary: a retreat of exactly trailingStop fires.
		// The epsilon absorbs float rounding in the ratio.
		if peak > 0 {
			retreat := (peak - current.PriceUSD) / peak
			if retreat >= genes.SellSignals.TrailingStop-1e-9 {
				hit(scoreTrailingStop, "trailing_stop_hit",
					fmt.Sprintf("Trailing stop: %.1f%% below peak %.6f", retreat*100, peak))
			}
		}
	}

	for _, tag := range genes.SellPatterns {
		if matchSellPattern(tag, ctx) {
			hit(scorePerSellPattern, tag, "Exit pattern matched: "+tag)
		}
	}

	if genes.TimeBasedExit > 0 && ctx.heldMinutes > 0.8*genes.TimeBasedExit && ctx.pnlPct < 0.05 {
		hit(scoreTimeDecay, "time_decay",
			fmt.Sprintf("Held %.0f of %.0f minutes with no progress", ctx.heldMinutes, genes.TimeBasedExit))
	}

	switch {
	case d.Score >= 40:
		d.Urgency = UrgencyImmediate
		d.SuggestedExitPercent = 1.0
	case d.Score >= 25:
		d.Urgency = UrgencySoon
		d.SuggestedExitPercent = 0.75
	case d.Score >= 15:
		d.Urgency = UrgencyConsider
		d.SuggestedExitPercent = 0.5
	}
	d.ShouldSell = d.Score >= sellScoreThreshold
	return d
}
