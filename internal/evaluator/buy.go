// Package evaluator reduces a genome plus a token snapshot to a buy or
// sell decision. Both paths are pure: no I/O, no clock reads beyond the
// timestamps handed in, results carried as structured values.
package evaluator

import (
	"fmt"
	"strings"

	"evo-trader/internal/domain"
)

// BuyDecision is the structured outcome of the entry evaluation.
type BuyDecision struct {
	ShouldTrade     bool     `json:"should_trade"`
	Score           float64  `json:"score"`
	MatchedPatterns []string `json:"matched_patterns"`
	MatchedKeywords []string `json:"matched_keywords"`
	SocialScore     float64  `json:"social_score"`
	Reasons         []string `json:"reasons"`
}

// Entry scoring weights.
const (
	scoreMcapInRange   = 20
	scoreVolumeOK      = 15
	scorePerPattern    = 15
	scorePerKeyword    = 10
	scorePerSocialPass = 10
	buyScoreThreshold  = 50
)

// ShouldBuy scores a token against one genome's entry genes.
// Market cap gating is inclusive at both bounds and fails fast; volume
// fails with the score accumulated so far. A trade requires score >= 50
// plus at least one matched pattern or keyword.
func ShouldBuy(genes domain.Genes, token *domain.Token) BuyDecision {
	d := BuyDecision{}

	if token.MarketCap < genes.EntryMcapMin || token.MarketCap > genes.EntryMcapMax {
		d.Reasons = append(d.Reasons, "Market cap outside range")
		return d
	}
	d.Score += scoreMcapInRange
	d.Reasons = append(d.Reasons, fmt.Sprintf("Market cap %.0f within [%.0f, %.0f]", token.MarketCap, genes.EntryMcapMin, genes.EntryMcapMax))

	if token.Volume24h < genes.EntryVolumeMin {
		d.Reasons = append(d.Reasons, "Volume below minimum")
		return d
	}
	d.Score += scoreVolumeOK
	d.Reasons = append(d.Reasons, fmt.Sprintf("Volume %.0f above minimum %.0f", token.Volume24h, genes.EntryVolumeMin))

	for _, tag := range genes.BuyPatterns {
		if matchBuyPattern(tag, token) {
			d.MatchedPatterns = append(d.MatchedPatterns, tag)
			d.Score += scorePerPattern
			d.Reasons = append(d.Reasons, "Pattern matched: "+tag)
		}
	}

	haystack := strings.ToLower(token.Name + " " + token.Symbol)
	for _, kw := range genes.TokenNameKeywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			d.MatchedKeywords = append(d.MatchedKeywords, kw)
			d.Score += scorePerKeyword
			d.Reasons = append(d.Reasons, "Keyword matched: "+kw)
		}
	}

	checks, passed := socialChecks(genes.SocialSignals, token)
	d.SocialScore = float64(passed) * scorePerSocialPass
	d.Score += d.SocialScore
	if checks > 0 && passed*2 < checks {
		d.Reasons = append(d.Reasons, fmt.Sprintf("Social signals weak: %d/%d passed", passed, checks))
	} else if checks > 0 {
		d.Reasons = append(d.Reasons, fmt.Sprintf("Social signals: %d/%d passed", passed, checks))
	}

	d.ShouldTrade = d.Score >= buyScoreThreshold &&
		(len(d.MatchedPatterns) > 0 || len(d.MatchedKeywords) > 0)
	return d
}

// socialChecks counts the configured (non-zero-threshold) social signals
// and how many the token clears.
func socialChecks(s domain.SocialSignals, token *domain.Token) (checks, passed int) {
	if s.HoldersMin > 0 {
		checks++
		if token.Holders >= s.HoldersMin {
			passed++
		}
	}
	if s.TwitterFollowers > 0 {
		checks++
		if hasSocialLink(token, "twitter") || hasSocialLink(token, "x.com") {
			passed++
		}
	}
	if s.TelegramMembers > 0 {
		checks++
		if hasSocialLink(token, "t.me") || hasSocialLink(token, "telegram") {
			passed++
		}
	}
	return checks, passed
}

func hasSocialLink(token *domain.Token, needle string) bool {
	for _, link := range token.SocialLinks {
		if strings.Contains(strings.ToLower(link), needle) {
			return true
		}
	}
	return false
}
