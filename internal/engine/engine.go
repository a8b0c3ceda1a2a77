// Package engine is the trading coordinator: it consumes the token feed,
// turns entry signals into funded positions, and drives the close path
// from the monitor back through the treasury and storage.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
	"evo-trader/internal/evaluator"
	"evo-trader/internal/events"
	"evo-trader/internal/execution"
	"evo-trader/internal/feed"
	"evo-trader/internal/genetics"
	"evo-trader/internal/monitor"
	"evo-trader/internal/observability"
	"evo-trader/internal/storage"
	"evo-trader/internal/treasury"
)

// Config tunes the engine's caps and cadences.
type Config struct {
	// MaxConcurrentTrades caps open positions across all strategies.
	MaxConcurrentTrades int

	// ScanInterval is the cadence of the full scan over the feed's
	// recent tokens, catching listings the live stream missed.
	ScanInterval time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentTrades: 10,
		ScanInterval:        60 * time.Second,
	}
}

// Engine wires the feed to the strategy population.
type Engine struct {
	cfg        Config
	feed       feed.Feed
	bus        *events.Bus
	manager    *treasury.Manager
	adapter    execution.Adapter
	monitor    *monitor.Monitor
	strategies storage.StrategyStore
	trades     storage.TradeStore
	treasuryDB storage.TreasuryStore
	history    storage.ObservationStore
	log        zerolog.Logger

	mu      sync.RWMutex
	genomes map[string]*domain.StrategyGenome // live cache of active strategies
	running bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an engine. history may be nil to disable market history.
func New(
	cfg Config,
	f feed.Feed,
	bus *events.Bus,
	manager *treasury.Manager,
	adapter execution.Adapter,
	strategies storage.StrategyStore,
	trades storage.TradeStore,
	treasuryDB storage.TreasuryStore,
	history storage.ObservationStore,
	mon *monitor.Monitor,
	logger zerolog.Logger,
) *Engine {
	if cfg.MaxConcurrentTrades <= 0 {
		cfg.MaxConcurrentTrades = DefaultConfig().MaxConcurrentTrades
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = DefaultConfig().ScanInterval
	}
	return &Engine{
		cfg:        cfg,
		feed:       f,
		bus:        bus,
		manager:    manager,
		adapter:    adapter,
		monitor:    mon,
		strategies: strategies,
		trades:     trades,
		treasuryDB: treasuryDB,
		history:    history,
		log:        logger.With().Str("component", "engine").Logger(),
		genomes:    make(map[string]*domain.StrategyGenome),
	}
}

// Resolver exposes the live genome cache to the monitor.
func (e *Engine) Resolver() monitor.GenomeResolver {
	return func(strategyID string) (*domain.StrategyGenome, bool) {
		e.mu.RLock()
		defer e.mu.RUnlock()
		g, ok := e.genomes[strategyID]
		return g, ok
	}
}

// Start loads the active population, rebuilds open positions from
// storage, and launches the feed consumer plus the periodic full scan.
// Idempotent while running.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()

	if err := e.ReloadStrategies(ctx); err != nil {
		return err
	}
	if err := e.restorePositions(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.monitor.Start(runCtx)

	e.wg.Add(2)
	go e.consumeFeed(runCtx)
	go e.scanLoop(runCtx)

	// Evolution swaps the population under us; reload the cache when a
	// cycle completes.
	e.wg.Add(1)
	go e.watchEvolution(runCtx)

	e.bus.Publish(events.KindEngineStarted, nil)
	e.log.Info().Int("strategies", e.activeCount()).Msg("engine started")
	return nil
}

// Stop halts the feed consumers and the monitor. Open positions stay in
// storage and are restored on the next start.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.monitor.Stop()

	e.bus.Publish(events.KindEngineStopped, nil)
	e.log.Info().Msg("engine stopped")
}

// ReloadStrategies refreshes the live genome cache from storage.
func (e *Engine) ReloadStrategies(ctx context.Context) error {
	active, err := e.strategies.GetByStatus(ctx, domain.StatusActive)
	if err != nil {
		return fmt.Errorf("load active strategies: %w", err)
	}

	cache := make(map[string]*domain.StrategyGenome, len(active))
	for _, g := range active {
		cache[g.ID] = g
	}

	e.mu.Lock()
	e.genomes = cache
	e.mu.Unlock()

	e.bus.Publish(events.KindStrategiesLoaded, active)
	return nil
}

// ActiveStrategies returns a snapshot of the live genome cache.
func (e *Engine) ActiveStrategies() []*domain.StrategyGenome {
	e.mu.RLock()
	defer e.mu.RUnlock()
	list := make([]*domain.StrategyGenome, 0, len(e.genomes))
	for _, g := range e.genomes {
		list = append(list, g)
	}
	return list
}

func (e *Engine) activeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.genomes)
}

// restorePositions rebuilds the monitor's view from open trades.
func (e *Engine) restorePositions(ctx context.Context) error {
	open, err := e.trades.GetOpen(ctx)
	if err != nil {
		return fmt.Errorf("load open trades: %w", err)
	}
	for _, t := range open {
		e.monitor.Track(domain.NewPosition(t))
	}
	if len(open) > 0 {
		e.log.Info().Int("positions", len(open)).Msg("restored open positions")
	}
	return nil
}

func (e *Engine) consumeFeed(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case token, ok := <-e.feed.Tokens():
			if !ok {
				e.log.Warn().Msg("token stream closed")
				return
			}
			e.HandleToken(ctx, token)
		}
	}
}

// scanLoop periodically sweeps the feed's recent listings, catching
// tokens the stream delivered while the engine was busy or down.
func (e *Engine) scanLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recent, err := e.feed.Recent(ctx)
			if err != nil {
				e.log.Warn().Err(err).Msg("recent scan failed")
				observability.RecordFeedError()
				continue
			}
			for _, token := range recent {
				e.HandleToken(ctx, token)
			}
		}
	}
}

func (e *Engine) watchEvolution(ctx context.Context) {
	defer e.wg.Done()

	sub := e.bus.Subscribe(16, events.TopicEvolution)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			if evt.Kind != events.KindEvolutionCompleted {
				continue
			}
			if err := e.ReloadStrategies(ctx); err != nil {
				e.log.Error().Err(err).Msg("reload strategies after evolution")
			}
		}
	}
}

// HandleToken evaluates one token snapshot against the whole active
// population and opens at most one position: the highest-scoring signal
// wins, first seen winning ties.
func (e *Engine) HandleToken(ctx context.Context, token domain.Token) {
	e.bus.Publish(events.KindTokenDiscovered, token)
	observability.RecordTokenDiscovered()
	e.recordObservation(ctx, token)

	type signal struct {
		genome   *domain.StrategyGenome
		decision evaluator.BuyDecision
	}

	var best *signal
	for _, g := range e.ActiveStrategies() {
		// Fresh count per candidate: positions opened earlier in this
		// pass count against the cap.
		if e.monitor.OpenCountFor(g.ID) >= g.Genes.MaxSimultaneousPositions {
			continue
		}

		decision := evaluator.ShouldBuy(g.Genes, &token)
		if !decision.ShouldTrade {
			continue
		}

		e.bus.Publish(events.KindSignalGenerated, map[string]any{
			"strategy_id": g.ID,
			"token":       token.Address,
			"score":       decision.Score,
			"reasons":     decision.Reasons,
		})
		observability.RecordSignal()

		if best == nil || decision.Score > best.decision.Score {
			best = &signal{genome: g, decision: decision}
		}
	}

	if best == nil {
		return
	}

	// The global cap gates the open, not the evaluation: signals still
	// go out so subscribers see what the population wanted to do.
	if e.monitor.OpenCount() >= e.cfg.MaxConcurrentTrades {
		e.log.Debug().Str("token", token.Address).Msg("concurrent trade cap reached, signal dropped")
		return
	}
	if err := e.openTrade(ctx, best.genome, &token); err != nil {
		e.log.Warn().Err(err).
			Str("strategy_id", best.genome.ID).
			Str("token", token.Address).
			Msg("open trade failed")
		e.bus.Publish(events.KindError, map[string]string{"error": err.Error()})
	}
}

// openTrade funds and opens a position: lock treasury funds, fill via the
// adapter, persist, then hand the position to the monitor. The trade is
// stored before the event goes out.
func (e *Engine) openTrade(ctx context.Context, g *domain.StrategyGenome, token *domain.Token) error {
	alloc, ok := e.manager.Allocation(g.ID)
	if !ok {
		return fmt.Errorf("strategy %s has no allocation", g.ID)
	}

	amountSol := alloc.AvailableSol * g.Genes.InvestmentPercent
	if amountSol <= 0 {
		return fmt.Errorf("strategy %s has no available funds", g.ID)
	}
	if !e.manager.LockFunds(g.ID, amountSol) {
		return fmt.Errorf("strategy %s cannot lock %.4f SOL", g.ID, amountSol)
	}

	trade, err := e.adapter.Buy(ctx, g, token, amountSol)
	if err != nil {
		e.manager.UnlockFunds(g.ID, amountSol)
		return fmt.Errorf("buy: %w", err)
	}

	if err := e.trades.Insert(ctx, trade); err != nil {
		e.manager.UnlockFunds(g.ID, amountSol)
		return fmt.Errorf("persist trade: %w", err)
	}

	e.monitor.Track(domain.NewPosition(trade))
	e.persistTreasury(ctx)

	e.bus.Publish(events.KindTradeOpened, trade)
	observability.RecordTradeOpened()

	e.log.Info().
		Str("strategy_id", g.ID).
		Str("token", token.Address).
		Float64("amount_sol", amountSol).
		Float64("entry_price", trade.EntryPrice).
		Msg("trade opened")
	return nil
}

// ClosePosition is the monitor's exit callback: fill the sell, persist
// the closed trade, settle the treasury, and fold the result into the
// strategy's performance.
func (e *Engine) ClosePosition(ctx context.Context, position *domain.Position, reason string) error {
	closed, err := e.adapter.Sell(ctx, position, reason)
	if err != nil {
		return fmt.Errorf("sell: %w", err)
	}

	if err := e.trades.Update(ctx, closed); err != nil {
		return fmt.Errorf("persist close: %w", err)
	}

	e.monitor.Untrack(closed.ID)

	if err := e.manager.RecordTradeClose(closed); err != nil {
		e.log.Error().Err(err).Str("trade_id", closed.ID).Msg("treasury settle failed")
	}
	e.persistTreasury(ctx)
	e.applyPerformance(ctx, closed)

	e.bus.Publish(events.KindTradeClosed, closed)
	observability.RecordTradeClosed(reason)

	e.log.Info().
		Str("trade_id", closed.ID).
		Str("strategy_id", closed.StrategyID).
		Str("reason", reason).
		Float64("pnl_sol", deref(closed.PnLSol)).
		Msg("trade closed")
	return nil
}

// applyPerformance folds a closed trade into the owning strategy's
// realized record, in cache and in storage.
func (e *Engine) applyPerformance(ctx context.Context, closed *domain.Trade) {
	e.mu.Lock()
	g, ok := e.genomes[closed.StrategyID]
	if ok {
		holdMinutes := 0.0
		if closed.ExitTime != nil {
			holdMinutes = closed.ExitTime.Sub(closed.EntryTime).Minutes()
		}
		g.Performance = genetics.ApplyTrade(g.Performance, deref(closed.PnLSol), deref(closed.PnLPercent), holdMinutes)
	}
	e.mu.Unlock()

	if !ok {
		// Strategy retired while the position was open; nothing to update.
		return
	}
	if err := e.strategies.Update(ctx, g); err != nil {
		e.log.Error().Err(err).Str("strategy_id", g.ID).Msg("persist performance failed")
	}
}

func (e *Engine) persistTreasury(ctx context.Context) {
	snapshot := e.manager.Snapshot()
	if err := e.treasuryDB.Save(ctx, snapshot); err != nil {
		e.log.Error().Err(err).Msg("persist treasury failed")
	}
	e.bus.Publish(events.KindTreasuryUpdated, snapshot)
	observability.UpdateTreasury(snapshot.TotalSol, snapshot.LockedInPositions, snapshot.TotalPnL)
}

func (e *Engine) recordObservation(ctx context.Context, token domain.Token) {
	if e.history == nil {
		return
	}
	obs := domain.ObservationOf(token, time.Now().UTC().UnixMilli())
	if err := e.history.InsertBulk(ctx, []*domain.TokenObservation{obs}); err != nil {
		e.log.Warn().Err(err).Str("token", token.Address).Msg("record observation failed")
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
