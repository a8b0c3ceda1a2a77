package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("USE_MEMORY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.True(t, cfg.PaperMode)
	assert.Equal(t, 10, cfg.MaxConcurrentTrades)
	assert.Equal(t, 20, cfg.PopulationSize)
	assert.InDelta(t, 0.2, cfg.SurvivorPercent, 1e-9)
	assert.InDelta(t, 0.15, cfg.MutationRate, 1e-9)
	assert.Equal(t, 24*time.Hour, cfg.EvolutionInterval)
	assert.InDelta(t, 10, cfg.TotalSol, 1e-9)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("USE_MEMORY", "true")
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("POPULATION_SIZE", "50")
	t.Setenv("MUTATION_RATE", "0.3")
	t.Setenv("EVOLUTION_INTERVAL", "6h")
	t.Setenv("TREASURY_TOTAL_SOL", "25.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 50, cfg.PopulationSize)
	assert.InDelta(t, 0.3, cfg.MutationRate, 1e-9)
	assert.Equal(t, 6*time.Hour, cfg.EvolutionInterval)
	assert.InDelta(t, 25.5, cfg.TotalSol, 1e-9)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn without memory", map[string]string{"USE_MEMORY": "false", "POSTGRES_DSN": ""}},
		{"zero population", map[string]string{"USE_MEMORY": "true", "POPULATION_SIZE": "0"}},
		{"survivor percent above one", map[string]string{"USE_MEMORY": "true", "SURVIVOR_PERCENT": "1.5"}},
		{"negative mutation rate", map[string]string{"USE_MEMORY": "true", "MUTATION_RATE": "-0.1"}},
		{"zero treasury", map[string]string{"USE_MEMORY": "true", "TREASURY_TOTAL_SOL": "0"}},
		{"unparseable float", map[string]string{"USE_MEMORY": "true", "SLIPPAGE": "lots"}},
		{"unparseable duration", map[string]string{"USE_MEMORY": "true", "SCAN_INTERVAL": "soon"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
