// Package stub provides a scripted in-memory feed for tests and paper
// runs without a live listing stream.
package stub

import (
	"context"
	"fmt"
	"sync"

	"evo-trader/internal/domain"
)

// Feed replays scripted listings and serves mutable snapshots.
// Implements feed.Feed.
type Feed struct {
	mu        sync.Mutex
	snapshots map[string]domain.Token
	out       chan domain.Token
	closed    bool
}

// NewFeed creates an empty stub feed.
func NewFeed() *Feed {
	return &Feed{
		snapshots: make(map[string]domain.Token),
		out:       make(chan domain.Token, 64),
	}
}

// Publish emits a token on the listing stream and records it as the
// current snapshot.
func (f *Feed) Publish(t domain.Token) {
	f.mu.Lock()
	f.snapshots[t.Address] = t
	closed := f.closed
	f.mu.Unlock()

	if !closed {
		f.out <- t
	}
}

// SetSnapshot updates the snapshot for one address without emitting a
// listing event. Used to script price movement for the monitor.
func (f *Feed) SetSnapshot(t domain.Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[t.Address] = t
}

// Remove deletes a snapshot, making later fetches fail like a delisted
// token.
func (f *Feed) Remove(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshots, address)
}

// Tokens returns the scripted listing stream.
func (f *Feed) Tokens() <-chan domain.Token {
	return f.out
}

// Snapshot returns the current scripted snapshot for the address.
func (f *Feed) Snapshot(_ context.Context, address string) (*domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.snapshots[address]
	if !ok {
		return nil, fmt.Errorf("token %s not found", address)
	}
	copy := t
	return &copy, nil
}

// Recent returns every scripted snapshot.
func (f *Feed) Recent(_ context.Context) ([]domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Token, 0, len(f.snapshots))
	for _, t := range f.snapshots {
		out = append(out, t)
	}
	return out, nil
}

// Close closes the listing stream.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.out)
	}
	return nil
}
