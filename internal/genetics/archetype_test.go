package genetics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"evo-trader/internal/domain"
)

func TestArchetypeOf(t *testing.T) {
	base := domain.Genes{
		EntryMcapMax:         500_000,
		TakeProfitMultiplier: 3,
		StopLossMultiplier:   0.6,
		TimeBasedExit:        120,
	}

	tests := []struct {
		name   string
		modify func(*domain.Genes)
		want   string
	}{
		{
			"aggressive on wide take-profit and tight stop",
			func(g *domain.Genes) { g.TakeProfitMultiplier = 8; g.StopLossMultiplier = 0.4 },
			domain.ArchetypeAggressive,
		},
		{
			"conservative on loose stop and modest take-profit",
			func(g *domain.Genes) { g.StopLossMultiplier = 0.8; g.TakeProfitMultiplier = 1.5 },
			domain.ArchetypeConservative,
		},
		{
			"social on twitter threshold",
			func(g *domain.Genes) { g.SocialSignals.TwitterFollowers = 6000 },
			domain.ArchetypeSocial,
		},
		{
			"social on telegram threshold",
			func(g *domain.Genes) { g.SocialSignals.TelegramMembers = 2500 },
			domain.ArchetypeSocial,
		},
		{
			"whale follower when wallets tracked",
			func(g *domain.Genes) { g.WhaleWallets = []string{"wal1"} },
			domain.ArchetypeWhaleFollower,
		},
		{
			"sniper on small caps with fast exit",
			func(g *domain.Genes) { g.EntryMcapMax = 50_000; g.TimeBasedExit = 15 },
			domain.ArchetypeSniper,
		},
		{
			"momentum as fallback",
			func(g *domain.Genes) {},
			domain.ArchetypeMomentum,
		},
		{
			"aggressive wins over social when both match",
			func(g *domain.Genes) {
				g.TakeProfitMultiplier = 8
				g.StopLossMultiplier = 0.4
				g.SocialSignals.TwitterFollowers = 9000
			},
			domain.ArchetypeAggressive,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := base
			tc.modify(&g)
			assert.Equal(t, tc.want, ArchetypeOf(g))
		})
	}
}
