// Package idhash computes deterministic identifiers by hashing.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// ComputeFillSignature derives a deterministic synthetic fill signature
// for a paper execution. Formula:
// base58(SHA256(strategy_id|token_address|side|timestamp_ms) twice over),
// giving a 64-byte signature like a real venue would return.
func ComputeFillSignature(strategyID, tokenAddress, side string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", strategyID, tokenAddress, side, timestampMs)

	first := sha256.Sum256([]byte(data))
	second := sha256.Sum256(first[:])

	sig := make([]byte, 0, 64)
	sig = append(sig, first[:]...)
	sig = append(sig, second[:]...)
	return base58.Encode(sig)
}
