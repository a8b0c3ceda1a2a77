// Package main runs the unified trading service: feed, engine, monitor,
// evolution scheduler, and the HTTP/WebSocket API in one process.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/api"
	"evo-trader/internal/config"
	"evo-trader/internal/domain"
	"evo-trader/internal/engine"
	"evo-trader/internal/events"
	"evo-trader/internal/evolution"
	"evo-trader/internal/execution"
	"evo-trader/internal/feed"
	"evo-trader/internal/feed/stub"
	"evo-trader/internal/genetics"
	"evo-trader/internal/monitor"
	"evo-trader/internal/storage"
	chstore "evo-trader/internal/storage/clickhouse"
	"evo-trader/internal/storage/memory"
	"evo-trader/internal/storage/migrations"
	pgstore "evo-trader/internal/storage/postgres"
	"evo-trader/internal/treasury"
)

type stores struct {
	strategies storage.StrategyStore
	trades     storage.TradeStore
	cycles     storage.CycleStore
	treasury   storage.TreasuryStore
	history    storage.ObservationStore

	pool *pgstore.Pool
	ch   *chstore.Conn
}

func (s *stores) close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.ch != nil {
		s.ch.Close()
	}
}

func buildStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.UseMemory {
		return &stores{
			strategies: memory.NewStrategyStore(),
			trades:     memory.NewTradeStore(),
			cycles:     memory.NewCycleStore(),
			treasury:   memory.NewTreasuryStore(),
			history:    memory.NewObservationStore(),
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}

	s := &stores{
		strategies: pgstore.NewStrategyStore(pool, log),
		trades:     pgstore.NewTradeStore(pool),
		cycles:     pgstore.NewCycleStore(pool),
		treasury:   pgstore.NewTreasuryStore(pool),
		pool:       pool,
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.ch = conn
		s.history = chstore.NewObservationStore(conn)
	}

	return s, nil
}

func buildFeed(ctx context.Context, cfg *config.Config, log zerolog.Logger) (feed.Feed, error) {
	if cfg.FeedWSURL == "" || cfg.FeedWSURL == "stub" {
		log.Warn().Msg("using stub feed: no tokens will arrive unless scripted")
		return stub.NewFeed(), nil
	}

	wsCfg := feed.DefaultWSConfig()
	wsCfg.StreamEndpoint = cfg.FeedWSURL
	wsCfg.SnapshotEndpoint = cfg.FeedHTTPURL
	return feed.NewWSFeed(ctx, wsCfg, log)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.close()

	bus := events.NewBus(log)

	// Treasury: restore the persisted snapshot when one exists so locked
	// funds and realized PnL survive restarts.
	manager := treasury.NewManager(cfg.TotalSol, cfg.ReservePercent, cfg.MaxAllocationPerStrategy, log)
	if snapshot, err := db.treasury.Load(ctx); err == nil {
		manager.Restore(snapshot)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load treasury: %w", err)
	}

	active, err := db.strategies.GetByStatus(ctx, domain.StatusActive)
	if err != nil {
		return fmt.Errorf("load strategies: %w", err)
	}
	if len(active) == 0 {
		log.Warn().Msg("no active strategies; run cmd/seed to create a genesis population")
	}
	manager.AllocateToStrategies(active)
	if err := db.treasury.Save(ctx, manager.Snapshot()); err != nil {
		return fmt.Errorf("persist treasury: %w", err)
	}

	f, err := buildFeed(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("start feed: %w", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	genCfg := genetics.Config{
		PopulationSize:  cfg.PopulationSize,
		SurvivorPercent: cfg.SurvivorPercent,
		DeadPercent:     cfg.DeadPercent,
		MutationRate:    cfg.MutationRate,
	}
	genEngine := genetics.NewEngine(genCfg, rng, log)

	adapter := execution.NewPaperAdapter(cfg.Slippage, log)

	// The monitor and the engine reference each other; the closures are
	// only invoked after both are constructed.
	var eng *engine.Engine
	mon := monitor.New(f, bus,
		func(strategyID string) (*domain.StrategyGenome, bool) {
			return eng.Resolver()(strategyID)
		},
		func(ctx context.Context, p *domain.Position, reason string) error {
			return eng.ClosePosition(ctx, p, reason)
		},
		cfg.MonitorInterval, log,
	)

	engCfg := engine.Config{
		MaxConcurrentTrades: cfg.MaxConcurrentTrades,
		ScanInterval:        cfg.ScanInterval,
	}
	eng = engine.New(engCfg, f, bus, manager, adapter,
		db.strategies, db.trades, db.treasury, db.history, mon, log)

	scheduler := evolution.New(genEngine, db.strategies, db.cycles, db.treasury, manager, bus, cfg.EvolutionInterval, log)

	apiServer := api.NewServer(cfg.HTTPAddr, bus,
		db.strategies, db.trades, db.cycles, manager, mon, scheduler, log)

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	if err := scheduler.Start(ctx); err != nil {
		eng.Stop()
		return fmt.Errorf("start scheduler: %w", err)
	}

	apiErr := make(chan error, 1)
	go func() { apiErr <- apiServer.Start() }()

	bus.Publish(events.KindSimulatorStarted, nil)
	log.Info().
		Str("addr", cfg.HTTPAddr).
		Bool("paper", cfg.PaperMode).
		Bool("memory", cfg.UseMemory).
		Msg("simulator running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-apiErr:
		if err != nil {
			log.Error().Err(err).Msg("api server failed")
		}
	}

	bus.Publish(events.KindSimulatorStopped, nil)
	scheduler.Stop()
	eng.Stop()
	if err := apiServer.Stop(); err != nil {
		log.Error().Err(err).Msg("api shutdown")
	}
	cancel()
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
