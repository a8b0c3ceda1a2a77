package domain

// BuyPatternCatalog is the fixed set of entry pattern tags a genome may
// carry. Matching rules live in the evaluator; genetics only draws tags.
var BuyPatternCatalog = []string{
	"cat_meme",
	"dog_meme",
	"ai_narrative",
	"agent_narrative",
	"low_holder_gem",
	"whale_accumulation",
	"animal_meme",
	"food_meme",
	"degen_play",
	"moon_mission",
	"pepe_meme",
	"elon_play",
	"political_meme",
	"fresh_launch",
	"volume_spike",
	"community_strong",
	"micro_cap",
	"deep_liquidity",
}

// SellPatternCatalog is the fixed set of strategic exit pattern tags.
var SellPatternCatalog = []string{
	"volume_collapse",
	"whale_dump",
	"holder_exodus",
	"hype_fade",
	"liquidity_drain",
	"time_decay",
	"momentum_death",
	"panic_selling",
	"slow_bleed",
	"profit_exhaustion",
}
