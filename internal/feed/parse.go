package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"evo-trader/internal/domain"
)

// tokenMessage is the wire form of one token record. Every numeric field
// is a pointer so absent or null values decode cleanly.
type tokenMessage struct {
	Address        string   `json:"address"`
	Name           string   `json:"name"`
	Symbol         string   `json:"symbol"`
	MarketCap      *float64 `json:"market_cap"`
	Volume24h      *float64 `json:"volume_24h"`
	Liquidity      *float64 `json:"liquidity"`
	Holders        *int     `json:"holders"`
	CreatedAtMs    *int64   `json:"created_at_ms"`
	Creator        string   `json:"creator"`
	SocialLinks    []string `json:"social_links"`
	PriceUSD       *float64 `json:"price_usd"`
	PriceChange24h *float64 `json:"price_change_24h"`
}

func parseToken(data []byte) (*domain.Token, error) {
	var msg tokenMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return msg.toDomain()
}

func (m *tokenMessage) toDomain() (*domain.Token, error) {
	if m.Address == "" {
		return nil, fmt.Errorf("token missing address")
	}
	if !isValidAddress(m.Address) {
		return nil, fmt.Errorf("token address %q not on curve", m.Address)
	}

	t := &domain.Token{
		Address:     m.Address,
		Name:        m.Name,
		Symbol:      m.Symbol,
		Creator:     m.Creator,
		SocialLinks: m.SocialLinks,
	}
	if m.MarketCap != nil {
		t.MarketCap = *m.MarketCap
	}
	if m.Volume24h != nil {
		t.Volume24h = *m.Volume24h
	}
	if m.Liquidity != nil {
		t.Liquidity = *m.Liquidity
	}
	if m.Holders != nil {
		t.Holders = *m.Holders
	}
	if m.CreatedAtMs != nil {
		t.CreatedAt = time.UnixMilli(*m.CreatedAtMs).UTC()
	}
	if m.PriceUSD != nil {
		t.PriceUSD = *m.PriceUSD
	}
	if m.PriceChange24h != nil {
		t.PriceChange24h = *m.PriceChange24h
	}
	return t, nil
}

// isValidAddress checks that the address is 32 base58 bytes decoding to
// a point on the ed25519 curve. Token mints are always on-curve.
func isValidAddress(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
