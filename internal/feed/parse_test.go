package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A real on-curve mint address (USDC).
const validMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// 32 base58 bytes that decode fine but are not an ed25519 point.
const offCurveMint = "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh"

func TestParseTokenFullMessage(t *testing.T) {
	data := []byte(`{
		"address": "` + validMint + `",
		"name": "Moon Cat",
		"symbol": "MCAT",
		"market_cap": 50000,
		"volume_24h": 20000,
		"liquidity": 8000,
		"holders": 120,
		"created_at_ms": 1700000000000,
		"creator": "someone",
		"social_links": ["https://t.me/mooncat"],
		"price_usd": 1.5,
		"price_change_24h": 42.5
	}`)

	token, err := parseToken(data)
	require.NoError(t, err)

	assert.Equal(t, validMint, token.Address)
	assert.Equal(t, "Moon Cat", token.Name)
	assert.Equal(t, "MCAT", token.Symbol)
	assert.InDelta(t, 50_000, token.MarketCap, 1e-9)
	assert.InDelta(t, 20_000, token.Volume24h, 1e-9)
	assert.InDelta(t, 8_000, token.Liquidity, 1e-9)
	assert.Equal(t, 120, token.Holders)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), token.CreatedAt)
	assert.Equal(t, []string{"https://t.me/mooncat"}, token.SocialLinks)
	assert.InDelta(t, 1.5, token.PriceUSD, 1e-9)
	assert.InDelta(t, 42.5, token.PriceChange24h, 1e-9)
}

func TestParseTokenNullsDecodeToZero(t *testing.T) {
	data := []byte(`{
		"address": "` + validMint + `",
		"name": "Sparse",
		"market_cap": null,
		"holders": null
	}`)

	token, err := parseToken(data)
	require.NoError(t, err)
	assert.Zero(t, token.MarketCap)
	assert.Zero(t, token.Holders)
	assert.Zero(t, token.PriceUSD)
	assert.True(t, token.CreatedAt.IsZero())
}

func TestParseTokenRejections(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{`},
		{"missing address", `{"name": "x"}`},
		{"not base58", `{"address": "not-base58-0OIl"}`},
		{"wrong length", `{"address": "abc"}`},
		{"off curve", `{"address": "` + offCurveMint + `"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseToken([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestIsValidAddress(t *testing.T) {
	assert.True(t, isValidAddress(validMint))
	assert.True(t, isValidAddress("So11111111111111111111111111111111111111112"))
	assert.False(t, isValidAddress(offCurveMint))
	assert.False(t, isValidAddress(""))
	assert.False(t, isValidAddress("abc"))
}
