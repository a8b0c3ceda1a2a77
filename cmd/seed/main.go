// Package main seeds the genesis population. Refuses to overwrite an
// existing population unless -force is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/config"
	"evo-trader/internal/genetics"
	"evo-trader/internal/storage/migrations"
	pgstore "evo-trader/internal/storage/postgres"
	"evo-trader/internal/treasury"
)

func run() error {
	force := flag.Bool("force", false, "wipe the existing population, trades, cycles and treasury first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.UseMemory {
		return fmt.Errorf("seeding requires a persistent store; unset USE_MEMORY")
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

	existing, err := strategies.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("check existing population: %w", err)
	}
	if len(existing) > 0 {
		if !*force {
			return fmt.Errorf("population already seeded (%d strategies); use -force to replace", len(existing))
		}
		if err := strategies.DeleteAll(ctx); err != nil {
			return fmt.Errorf("wipe strategies: %w", err)
		}
		if err := trades.DeleteAll(ctx); err != nil {
			return fmt.Errorf("wipe trades: %w", err)
		}
		if err := cycles.DeleteAll(ctx); err != nil {
			return fmt.Errorf("wipe cycles: %w", err)
		}
		if err := treasuryDB.Delete(ctx); err != nil {
			return fmt.Errorf("wipe treasury: %w", err)
		}
		log.Info().Int("removed", len(existing)).Msg("existing population wiped")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	genCfg := genetics.Config{
		PopulationSize:  cfg.PopulationSize,
		SurvivorPercent: cfg.SurvivorPercent,
		DeadPercent:     cfg.DeadPercent,
		MutationRate:    cfg.MutationRate,
	}
	engine := genetics.NewEngine(genCfg, rng, log)

	genesis := engine.GenerateGenesis(cfg.PopulationSize)
	for _, g := range genesis {
		if err := strategies.Insert(ctx, g); err != nil {
			return fmt.Errorf("insert strategy %s: %w", g.ID, err)
		}
	}

	manager := treasury.NewManager(cfg.TotalSol, cfg.ReservePercent, cfg.MaxAllocationPerStrategy, log)
	manager.AllocateToStrategies(genesis)
	if err := treasuryDB.Save(ctx, manager.Snapshot()); err != nil {
		return fmt.Errorf("persist treasury: %w", err)
	}

	log.Info().
		Int("population", len(genesis)).
		Float64("total_sol", cfg.TotalSol).
		Msg("genesis population seeded")
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
