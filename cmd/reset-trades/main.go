// Package main clears trade history, cycle records, and realized
// performance while leaving the population and treasury intact.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"evo-trader/internal/config"
	"evo-trader/internal/storage/migrations"
	pgstore "evo-trader/internal/storage/postgres"
)

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.UseMemory {
		return fmt.Errorf("reset-trades requires a persistent store; unset USE_MEMORY")
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

	if err := trades.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear trades: %w", err)
	}
	if err := cycles.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear cycles: %w", err)
	}
	if err := strategies.ResetPerformance(ctx); err != nil {
		return fmt.Errorf("reset performance: %w", err)
	}

	log.Info().Msg("trades, cycles, and performance cleared")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
