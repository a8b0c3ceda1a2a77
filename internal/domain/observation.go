package domain

// TokenObservation is one row of token market history, written on every
// feed snapshot the monitor or engine consumes. Stored in ClickHouse.
type TokenObservation struct {
	Address     string  `json:"address"`
	TimestampMs int64   `json:"timestamp_ms"`
	PriceUSD    float64 `json:"price_usd"`
	MarketCap   float64 `json:"market_cap"`
	Volume24h   float64 `json:"volume_24h"`
	Liquidity   float64 `json:"liquidity"`
	Holders     int     `json:"holders"`
}

// ObservationOf flattens a token snapshot into a history row.
func ObservationOf(t Token, timestampMs int64) *TokenObservation {
	return &TokenObservation{
		Address:     t.Address,
		TimestampMs: timestampMs,
		PriceUSD:    t.PriceUSD,
		MarketCap:   t.MarketCap,
		Volume24h:   t.Volume24h,
		Liquidity:   t.Liquidity,
		Holders:     t.Holders,
	}
}
