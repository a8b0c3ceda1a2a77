package genetics

import "evo-trader/internal/domain"

// ArchetypeOf classifies a gene bundle into one of the six archetypes.
// Rules are evaluated in order, first match wins, so the classification
// is deterministic and stable for a given bundle.
func ArchetypeOf(g domain.Genes) string {
	switch {
	case g.TakeProfitMultiplier > 5 && g.StopLossMultiplier < 0.5:
		return domain.ArchetypeAggressive
	case g.StopLossMultiplier > 0.7 && g.TakeProfitMultiplier < 3:
		return domain.ArchetypeConservative
	case g.SocialSignals.TwitterFollowers > 5000 || g.SocialSignals.TelegramMembers > 2000:
		return domain.ArchetypeSocial
	case len(g.WhaleWallets) > 0:
		return domain.ArchetypeWhaleFollower
	case g.EntryMcapMax < 100_000 && g.TimeBasedExit < 30:
		return domain.ArchetypeSniper
	default:
		return domain.ArchetypeMomentum
	}
}
