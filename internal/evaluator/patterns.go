package evaluator

import (
	"strings"
	"time"

	"evo-trader/internal/domain"
)

// nameMatches reports whether the token's name or symbol contains any of
// the needles, case-insensitively.
func nameMatches(token *domain.Token, needles ...string) bool {
	haystack := strings.ToLower(token.Name + " " + token.Symbol)
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// matchBuyPattern evaluates one entry pattern tag against a snapshot.
// Unknown tags never match.
func matchBuyPattern(tag string, token *domain.Token) bool {
	switch tag {
	case "cat_meme":
		return nameMatches(token, "cat")
	case "dog_meme":
		return nameMatches(token, "dog", "inu", "shib")
	case "ai_narrative":
		return nameMatches(token, "ai", "gpt", "neural")
	case "agent_narrative":
		return nameMatches(token, "agent")
	case "low_holder_gem":
		return token.Holders < 100 && token.Volume24h > 5_000
	case "whale_accumulation":
		return token.Volume24h > token.MarketCap*0.5
	case "animal_meme":
		return nameMatches(token, "cat", "dog", "ape", "frog", "pepe", "monkey", "bear", "bull")
	case "food_meme":
		return nameMatches(token, "pizza", "burger", "taco", "sushi", "ramen", "food")
	case "degen_play":
		return token.PriceChange24h > 100 && token.Holders > 50
	case "moon_mission":
		return nameMatches(token, "moon", "rocket", "lunar")
	case "pepe_meme":
		return nameMatches(token, "pepe")
	case "elon_play":
		return nameMatches(token, "elon", "doge", "mars")
	case "political_meme":
		return nameMatches(token, "trump", "maga", "freedom", "biden")
	case "fresh_launch":
		return !token.CreatedAt.IsZero() && time.Since(token.CreatedAt) < time.Hour
	case "volume_spike":
		return token.Volume24h > 10_000 && token.PriceChange24h > 50
	case "community_strong":
		return token.Holders > 500
	case "micro_cap":
		return token.MarketCap > 0 && token.MarketCap < 50_000
	case "deep_liquidity":
		return token.Liquidity > token.MarketCap*0.3
	default:
		return false
	}
}

// sellContext carries the deltas a strategic exit rule can consult.
// Deltas are zero when no previous snapshot exists.
type sellContext struct {
	pnlPct       float64 // unrealized, fraction
	priceDelta   float64 // fractional change vs previous
	volumeDelta  float64 // fractional change vs previous
	liqDelta     float64 // fractional change vs previous
	holdersDelta int     // absolute change vs previous
	heldMinutes  float64
	entryPrice   float64
	currentPrice float64
}

// matchSellPattern evaluates one strategic exit pattern tag.
//
// momentum_death intentionally never matches: the upstream source
// compared a value to a scaled copy of itself, an expression that is
// identically false. The momentum-reversal signal covers the behavior.
func matchSellPattern(tag string, ctx sellContext) bool {
	switch tag {
	case "volume_collapse":
		return ctx.volumeDelta < -0.5
	case "whale_dump":
		return ctx.volumeDelta > 0.5 && ctx.currentPrice < ctx.entryPrice
	case "holder_exodus":
		return ctx.holdersDelta < -20
	case "hype_fade":
		return ctx.volumeDelta < -0.3 && ctx.holdersDelta < 0
	case "liquidity_drain":
		return ctx.liqDelta < -0.3
	case "time_decay":
		return ctx.heldMinutes > 30 && ctx.pnlPct < 0.1
	case "momentum_death":
		return false
	case "panic_selling":
		return ctx.priceDelta < -0.15
	case "slow_bleed":
		return ctx.pnlPct < -0.05 && ctx.heldMinutes > 20
	case "profit_exhaustion":
		return ctx.pnlPct > 0.3 && ctx.priceDelta < 0
	default:
		return false
	}
}
