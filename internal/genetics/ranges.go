package genetics

// envelope is the documented [min, max] range of one mutable scalar gene.
// Genesis draws inside it, mutation clamps back into it.
type envelope struct {
	Min float64
	Max float64
}

var (
	envEntryMcapMin   = envelope{1_000, 100_000}
	envEntryMcapMax   = envelope{5_000, 1_000_000}
	envEntryVolumeMin = envelope{0, 50_000}

	envTwitterFollowers = envelope{0, 10_000}
	envTelegramMembers  = envelope{0, 5_000}
	envHoldersMin       = envelope{0, 500}

	envTakeProfit     = envelope{1.2, 10}
	envStopLoss       = envelope{0.3, 0.9}
	envTimeBasedExit  = envelope{5, 1_440} // minutes
	envVolumeDropExit = envelope{0.2, 0.8}

	envMcapCeiling    = envelope{0, 5_000_000}
	envProfitSecuring = envelope{0, 1}
	envTrailingStop   = envelope{0.05, 0.5}

	envInvestmentPercent = envelope{0.01, 1}
	envMaxPositions      = envelope{1, 5}
	envMaxDrawdown       = envelope{0.05, 0.6}
	envDiversification   = envelope{0, 1}
)

// Pattern-set caps for mutation. Additions stop at the cap, removals stop
// at two remaining elements.
const (
	maxBuyPatterns  = 6
	maxSellPatterns = 5
	maxKeywords     = 4
)

// keywordPool is the substring vocabulary genesis draws token name
// keywords from.
var keywordPool = []string{
	"cat", "dog", "inu", "ai", "gpt", "agent", "pepe", "moon",
	"elon", "doge", "frog", "baby", "chad", "wif",
}
