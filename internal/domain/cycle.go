package domain

import "time"

// EvolutionCycle is the immutable record of one generation transition.
// Corresponds to the evolution_cycles table (unique index on generation).
type EvolutionCycle struct {
	Generation     int       `json:"generation"`
	Timestamp      time.Time `json:"timestamp"`
	SurvivorIDs    []string  `json:"survivor_ids"`
	DeadIDs        []string  `json:"dead_ids"`
	NewlyBornIDs   []string  `json:"newly_born_ids"`
	AvgFitness     float64   `json:"avg_fitness"`
	BestFitness    float64   `json:"best_fitness"`
	TotalPnLSol    float64   `json:"total_pnl_sol"`
	BestStrategyID string    `json:"best_strategy_id"`
}
