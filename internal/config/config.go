// Package config loads the service configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	// Boundary
	HTTPAddr    string
	FeedWSURL   string
	FeedHTTPURL string

	// Storage
	UseMemory     bool
	PostgresDSN   string
	ClickhouseDSN string

	// Trading
	PaperMode           bool
	Slippage            float64
	MaxConcurrentTrades int
	MonitorInterval     time.Duration
	ScanInterval        time.Duration

	// Evolution
	PopulationSize    int
	SurvivorPercent   float64
	DeadPercent       float64
	MutationRate      float64
	EvolutionInterval time.Duration

	// Treasury
	TotalSol                 float64
	ReservePercent           float64
	MaxAllocationPerStrategy float64
	WalletPerAgent           float64

	// Logging
	LogLevel string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is merged in when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:    envStr("HTTP_ADDR", ":8080"),
		FeedWSURL:   envStr("FEED_WS_URL", "wss://pumpportal.fun/api/data"),
		FeedHTTPURL: envStr("FEED_HTTP_URL", ""),

		UseMemory:     envBool("USE_MEMORY", false),
		PostgresDSN:   envStr("POSTGRES_DSN", ""),
		ClickhouseDSN: envStr("CLICKHOUSE_DSN", ""),

		PaperMode:           envBool("PAPER_MODE", true),
		MaxConcurrentTrades: envInt("MAX_CONCURRENT_TRADES", 10),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Slippage, err = envFloat("SLIPPAGE", 0.01); err != nil {
		return nil, err
	}
	if cfg.MonitorInterval, err = envDuration("MONITOR_INTERVAL", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.ScanInterval, err = envDuration("SCAN_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.EvolutionInterval, err = envDuration("EVOLUTION_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}

	cfg.PopulationSize = envInt("POPULATION_SIZE", 20)
	if cfg.SurvivorPercent, err = envFloat("SURVIVOR_PERCENT", 0.2); err != nil {
		return nil, err
	}
	if cfg.DeadPercent, err = envFloat("DEAD_PERCENT", 0.2); err != nil {
		return nil, err
	}
	if cfg.MutationRate, err = envFloat("MUTATION_RATE", 0.15); err != nil {
		return nil, err
	}

	if cfg.TotalSol, err = envFloat("TREASURY_TOTAL_SOL", 10); err != nil {
		return nil, err
	}
	if cfg.ReservePercent, err = envFloat("TREASURY_RESERVE_PERCENT", 0.1); err != nil {
		return nil, err
	}
	if cfg.MaxAllocationPerStrategy, err = envFloat("TREASURY_MAX_ALLOCATION", 5); err != nil {
		return nil, err
	}
	if cfg.WalletPerAgent, err = envFloat("WALLET_PER_AGENT", 0.5); err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if !c.UseMemory && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN required unless USE_MEMORY=true")
	}
	if c.PopulationSize <= 0 {
		return fmt.Errorf("POPULATION_SIZE must be positive")
	}
	if c.SurvivorPercent < 0 || c.SurvivorPercent > 1 {
		return fmt.Errorf("SURVIVOR_PERCENT must be in [0,1]")
	}
	if c.DeadPercent < 0 || c.DeadPercent > 1 {
		return fmt.Errorf("DEAD_PERCENT must be in [0,1]")
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("MUTATION_RATE must be in [0,1]")
	}
	if c.TotalSol <= 0 {
		return fmt.Errorf("TREASURY_TOTAL_SOL must be positive")
	}
	return nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
