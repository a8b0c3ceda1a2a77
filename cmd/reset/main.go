// Package main clears all trading history and the strategy graveyard,
// then rebuilds the treasury sized to the surviving population.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"evo-trader/internal/config"
	"evo-trader/internal/domain"
	"evo-trader/internal/storage/migrations"
	pgstore "evo-trader/internal/storage/postgres"
	"evo-trader/internal/treasury"
)

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.UseMemory {
		return fmt.Errorf("reset requires a persistent store; unset USE_MEMORY")
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}

	strategies := pgstore.NewStrategyStore(pool, log)
	trades := pgstore.NewTradeStore(pool)
	cycles := pgstore.NewCycleStore(pool)
	treasuryDB := pgstore.NewTreasuryStore(pool)

	if err := trades.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear trades: %w", err)
	}
	if err := cycles.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear cycles: %w", err)
	}
	if err := treasuryDB.Delete(ctx); err != nil {
		return fmt.Errorf("clear treasury: %w", err)
	}
	buried, err := strategies.DeleteDead(ctx)
	if err != nil {
		return fmt.Errorf("clear graveyard: %w", err)
	}
	if err := strategies.ResetPerformance(ctx); err != nil {
		return fmt.Errorf("reset performance: %w", err)
	}

	active, err := strategies.GetByStatus(ctx, domain.StatusActive)
	if err != nil {
		return fmt.Errorf("load active strategies: %w", err)
	}

	// The fresh treasury is sized to the survivors.
	totalSol := float64(len(active)) * cfg.WalletPerAgent
	manager := treasury.NewManager(totalSol, cfg.ReservePercent, cfg.MaxAllocationPerStrategy, log)
	manager.AllocateToStrategies(active)
	if err := treasuryDB.Save(ctx, manager.Snapshot()); err != nil {
		return fmt.Errorf("persist treasury: %w", err)
	}

	log.Info().
		Int64("graveyard_cleared", buried).
		Int("active", len(active)).
		Float64("total_sol", totalSol).
		Msg("reset complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
