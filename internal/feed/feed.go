// Package feed consumes the external token feed: a websocket stream of
// newly listed tokens plus a best-effort per-token snapshot endpoint.
// Everything here is tolerant by contract: nulls, parse failures and
// transport hiccups are logged and skipped, never propagated as fatal.
package feed

import (
	"context"

	"evo-trader/internal/domain"
)

// Feed delivers new-token listings and point-in-time snapshots.
type Feed interface {
	// Tokens returns the stream of newly listed tokens. The channel is
	// closed when the feed shuts down.
	Tokens() <-chan domain.Token

	// Snapshot fetches the current state of one token. Best-effort:
	// a missing or unparsable token returns an error the caller is
	// expected to swallow and retry on its next tick.
	Snapshot(ctx context.Context, address string) (*domain.Token, error)

	// Recent returns the feed's view of recently listed tokens, used by
	// the periodic full scan. Best-effort, may be empty.
	Recent(ctx context.Context) ([]domain.Token, error)

	// Close shuts the feed down and closes the token stream.
	Close() error
}
