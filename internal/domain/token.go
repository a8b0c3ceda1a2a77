package domain

import "time"

// Token is an immutable snapshot of a listed token at one observation.
// The monitor keeps a one-deep previous snapshot per address so sell
// evaluation can compute deltas.
type Token struct {
	Address        string    `json:"address"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	MarketCap      float64   `json:"market_cap"`
	Volume24h      float64   `json:"volume_24h"`
	Liquidity      float64   `json:"liquidity"`
	Holders        int       `json:"holders"`
	CreatedAt      time.Time `json:"created_at"`
	Creator        string    `json:"creator"`
	SocialLinks    []string  `json:"social_links,omitempty"`
	PriceUSD       float64   `json:"price_usd"`
	PriceChange24h float64   `json:"price_change_24h"` // percent
}
