package domain

import "time"

// Strategy status constants.
const (
	StatusActive       = "active"
	StatusNeedsFunding = "needs_funding"
	StatusBreeding     = "breeding"
	StatusDead         = "dead"
)

// Archetype constants. Derived from genes, display/filtering only.
const (
	ArchetypeAggressive    = "aggressive"
	ArchetypeConservative  = "conservative"
	ArchetypeSocial        = "social"
	ArchetypeWhaleFollower = "whale_follower"
	ArchetypeSniper        = "sniper"
	ArchetypeMomentum      = "momentum"
)

// SocialSignals are entry-side thresholds over a token's social footprint.
// A zero threshold disables the corresponding check.
type SocialSignals struct {
	TwitterFollowers int `json:"twitter_followers"`
	TelegramMembers  int `json:"telegram_members"`
	HoldersMin       int `json:"holders_min"`
}

// SellSignals are the strategic exit thresholds. The three booleans are
// always true; only thresholds are subject to mutation.
type SellSignals struct {
	MomentumReversal bool    `json:"momentum_reversal"`
	VolumeDry        bool    `json:"volume_dry"`
	HoldersDumping   bool    `json:"holders_dumping"`
	McapCeiling      float64 `json:"mcap_ceiling"`     // 0 disables
	ProfitSecuring   float64 `json:"profit_securing"`  // [0,1], 0 disables
	TrailingStop     float64 `json:"trailing_stop"`    // [0,1], 0 disables
}

// Genes is the full parameter bundle of a trading strategy.
// Immutable once generated except through mutation.
type Genes struct {
	// Entry side
	EntryMcapMin      float64       `json:"entry_mcap_min"`
	EntryMcapMax      float64       `json:"entry_mcap_max"`
	EntryVolumeMin    float64       `json:"entry_volume_min"`
	SocialSignals     SocialSignals `json:"social_signals"`
	BuyPatterns       []string      `json:"buy_patterns"`
	WhaleWallets      []string      `json:"whale_wallets"`
	TokenNameKeywords []string      `json:"token_name_keywords"`

	// Exit side (mechanical)
	TakeProfitMultiplier float64 `json:"take_profit_multiplier"` // > 1
	StopLossMultiplier   float64 `json:"stop_loss_multiplier"`   // (0,1)
	TimeBasedExit        float64 `json:"time_based_exit"`        // minutes, > 0
	VolumeDropExit       float64 `json:"volume_drop_exit"`       // (0,1)

	// Exit side (strategic)
	SellSignals  SellSignals `json:"sell_signals"`
	SellPatterns []string    `json:"sell_patterns"`

	// Sizing
	InvestmentPercent        float64 `json:"investment_percent"`         // [0.01,1]
	MaxSimultaneousPositions int     `json:"max_simultaneous_positions"` // >= 1
	MaxDrawdown              float64 `json:"max_drawdown"`               // [0,1]
	Diversification          float64 `json:"diversification"`            // [0,1]
}

// Performance tracks realized results for one strategy.
type Performance struct {
	TradesExecuted int     `json:"trades_executed"`
	WinRate        float64 `json:"win_rate"` // [0,1]
	TotalPnL       float64 `json:"total_pnl"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	AvgHoldTime    float64 `json:"avg_hold_time"` // minutes
	FitnessScore   float64 `json:"fitness_score"` // [0,100]
}

// NewPerformance returns the zero performance of a freshly born strategy.
func NewPerformance() Performance {
	return Performance{FitnessScore: 50}
}

// StrategyGenome is one member of the evolving population.
// Invariant: Status == StatusDead implies DeathTimestamp != nil and the
// performance record is frozen.
type StrategyGenome struct {
	ID             string      `json:"id"`
	Name           string      `json:"name,omitempty"`
	Generation     int         `json:"generation"`
	ParentIDs      []string    `json:"parent_ids"` // empty for genesis, two for bred
	Genes          Genes       `json:"genes"`
	Performance    Performance `json:"performance"`
	Status         string      `json:"status"`
	Archetype      string      `json:"archetype"`
	BirthTimestamp time.Time   `json:"birth_timestamp"`
	DeathTimestamp *time.Time  `json:"death_timestamp,omitempty"`
}

// IsActive reports whether the strategy participates in trading.
func (s *StrategyGenome) IsActive() bool {
	return s.Status == StatusActive
}

// Clone returns a deep copy. Slices are copied so mutation of the clone
// never aliases the original.
func (s *StrategyGenome) Clone() *StrategyGenome {
	c := *s
	c.ParentIDs = append([]string(nil), s.ParentIDs...)
	c.Genes = s.Genes.Clone()
	if s.DeathTimestamp != nil {
		t := *s.DeathTimestamp
		c.DeathTimestamp = &t
	}
	return &c
}

// Clone returns a deep copy of the gene bundle.
func (g Genes) Clone() Genes {
	c := g
	c.BuyPatterns = append([]string(nil), g.BuyPatterns...)
	c.WhaleWallets = append([]string(nil), g.WhaleWallets...)
	c.TokenNameKeywords = append([]string(nil), g.TokenNameKeywords...)
	c.SellPatterns = append([]string(nil), g.SellPatterns...)
	return c
}
