// Package monitor supervises open positions: it polls the feed for fresh
// snapshots, applies mechanical exits first and strategic exits second,
// and drives the close callback. Ticks for distinct positions run in
// parallel; ticks for the same position never overlap.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
	"evo-trader/internal/evaluator"
	"evo-trader/internal/events"
	"evo-trader/internal/feed"
	"evo-trader/internal/observability"
)

// ExitFunc closes a position for the given reason. A returned error
// leaves the position tracked so a later tick can retry.
type ExitFunc func(ctx context.Context, position *domain.Position, reason string) error

// GenomeResolver looks up the live genome for a strategy id.
type GenomeResolver func(strategyID string) (*domain.StrategyGenome, bool)

// Monitor polls open positions on a fixed cadence.
type Monitor struct {
	feed     feed.Feed
	bus      *events.Bus
	resolve  GenomeResolver
	exit     ExitFunc
	interval time.Duration
	log      zerolog.Logger

	mu        sync.Mutex
	positions map[string]*domain.Position // keyed by trade id
	previous  map[string]*domain.Token    // one-deep snapshot per token address
	inflight  map[string]struct{}         // trade ids with a tick in progress

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a monitor. interval is the polling cadence.
func New(f feed.Feed, bus *events.Bus, resolve GenomeResolver, exit ExitFunc, interval time.Duration, logger zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 20 * time.Second
	}
	return &Monitor{
		feed:      f,
		bus:       bus,
		resolve:   resolve,
		exit:      exit,
		interval:  interval,
		log:       logger.With().Str("component", "monitor").Logger(),
		positions: make(map[string]*domain.Position),
		previous:  make(map[string]*domain.Token),
		inflight:  make(map[string]struct{}),
	}
}

// Start launches the polling loop. Stopping the context cancels all
// in-flight ticks at their next suspension point.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.tick(ctx)
			}
		}
	}()
	m.log.Info().Dur("interval", m.interval).Msg("position monitor started")
}

// Stop cancels the loop and waits for in-flight ticks.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.log.Info().Msg("position monitor stopped")
}

// Track begins supervising an open position.
func (m *Monitor) Track(p *domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[p.Trade.ID] = p
	observability.SetOpenPositions(len(m.positions))
}

// Untrack stops supervising a position, dropping its snapshot cache when
// no other position references the token.
func (m *Monitor) Untrack(tradeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.positions[tradeID]
	if !ok {
		return
	}
	delete(m.positions, tradeID)

	addr := p.Trade.TokenAddress
	shared := false
	for _, other := range m.positions {
		if other.Trade.TokenAddress == addr {
			shared = true
			break
		}
	}
	if !shared {
		delete(m.previous, addr)
	}
	observability.SetOpenPositions(len(m.positions))
}

// Positions returns copies of all tracked positions.
func (m *Monitor) Positions() []*domain.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Position, 0, len(m.positions))
	for _, p := range m.positions {
		c := *p
		out = append(out, &c)
	}
	return out
}

// OpenCount returns the number of tracked positions.
func (m *Monitor) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

// OpenCountFor returns the number of tracked positions for one strategy.
func (m *Monitor) OpenCountFor(strategyID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, p := range m.positions {
		if p.Trade.StrategyID == strategyID {
			n++
		}
	}
	return n
}

// tick fans one check per tracked position out to goroutines, skipping
// positions whose previous tick has not finished.
func (m *Monitor) tick(ctx context.Context) {
	m.mu.Lock()
	batch := make([]*domain.Position, 0, len(m.positions))
	for id, p := range m.positions {
		if _, busy := m.inflight[id]; busy {
			continue
		}
		m.inflight[id] = struct{}{}
		batch = append(batch, p)
	}
	m.mu.Unlock()

	for _, p := range batch {
		m.wg.Add(1)
		go func(p *domain.Position) {
			defer m.wg.Done()
			defer func() {
				m.mu.Lock()
				delete(m.inflight, p.Trade.ID)
				m.mu.Unlock()
			}()
			m.checkPosition(ctx, p)
		}(p)
	}
}

// CheckNow runs one synchronous check for every tracked position.
// Used by tests and the engine's full scan.
func (m *Monitor) CheckNow(ctx context.Context) {
	m.tick(ctx)
	// tick is asynchronous; wait for the batch by draining inflight.
	for {
		m.mu.Lock()
		busy := len(m.inflight)
		m.mu.Unlock()
		if busy == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (m *Monitor) checkPosition(ctx context.Context, p *domain.Position) {
	start := time.Now()
	defer func() { observability.ObserveMonitorTick(time.Since(start).Seconds()) }()

	addr := p.Trade.TokenAddress
	current, err := m.feed.Snapshot(ctx, addr)
	if err != nil {
		// Best-effort feed: skip this tick without state change.
		m.log.Debug().Err(err).Str("token", addr).Msg("snapshot unavailable, skipping tick")
		return
	}

	m.mu.Lock()
	prev := m.previous[addr]
	now := time.Now().UTC()
	p.Update(current.PriceUSD, now)
	updated := *p
	m.previous[addr] = current
	m.mu.Unlock()

	m.bus.Publish(events.KindPositionUpdated, &updated)

	if reason := mechanicalExit(&updated, now); reason != "" {
		m.triggerExit(ctx, p, reason)
		return
	}

	genome, ok := m.resolve(p.Trade.StrategyID)
	if !ok {
		m.log.Warn().Str("strategy_id", p.Trade.StrategyID).Msg("no genome for position, skipping strategic exit")
		return
	}

	decision := evaluator.ShouldSell(genome.Genes, &updated, current, prev, now)
	if decision.ShouldSell {
		reason := mapExitReason(decision.MatchedPatterns)
		m.log.Info().
			Str("trade_id", p.Trade.ID).
			Str("urgency", decision.Urgency).
			Float64("score", decision.Score).
			Strs("patterns", decision.MatchedPatterns).
			Str("reason", reason).
			Msg("strategic exit signalled")
		m.triggerExit(ctx, p, reason)
	}
}

// mechanicalExit applies the hard exit rules, in order.
func mechanicalExit(p *domain.Position, now time.Time) string {
	t := p.Trade
	switch {
	case p.CurrentPrice >= t.TakeProfitPrice:
		return domain.ExitReasonTakeProfit
	case p.CurrentPrice <= t.StopLossPrice:
		return domain.ExitReasonStopLoss
	case !now.Before(t.TimeExitTimestamp):
		return domain.ExitReasonTimeExit
	default:
		return ""
	}
}

// mapExitReason translates strategic exit patterns into a trade exit
// reason. First matching rule wins.
func mapExitReason(patterns []string) string {
	for _, pat := range patterns {
		if pat == "trailing_stop_hit" {
			return domain.ExitReasonStopLoss
		}
	}
	for _, pat := range patterns {
		if pat == "profit_secure" || pat == "mcap_ceiling" {
			return domain.ExitReasonTakeProfit
		}
	}
	for _, pat := range patterns {
		if pat == "volume_collapse" || pat == "liquidity_drain" {
			return domain.ExitReasonVolumeDrop
		}
	}
	for _, pat := range patterns {
		if pat == "time_decay" {
			return domain.ExitReasonTimeExit
		}
	}
	return domain.ExitReasonManual
}

func (m *Monitor) triggerExit(ctx context.Context, p *domain.Position, reason string) {
	if err := m.exit(ctx, p, reason); err != nil {
		// Keep the position tracked; a later tick retries.
		m.log.Error().Err(err).Str("trade_id", p.Trade.ID).Str("reason", reason).Msg("exit failed")
		m.bus.Publish(events.KindError, map[string]string{
			"scope":    "monitor",
			"trade_id": p.Trade.ID,
			"error":    err.Error(),
		})
	}
}
