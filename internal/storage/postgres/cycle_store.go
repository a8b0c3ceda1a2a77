package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// CycleStore implements storage.CycleStore using PostgreSQL.
type CycleStore struct {
	pool *Pool
}

// NewCycleStore creates a new CycleStore.
func NewCycleStore(pool *Pool) *CycleStore {
	return &CycleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CycleStore = (*CycleStore)(nil)

const cycleColumns = `
	generation, cycle_timestamp, survivor_ids, dead_ids, newly_born_ids,
	avg_fitness, best_fitness, total_pnl_sol, best_strategy_id
`

// Insert adds a cycle record. Returns ErrDuplicateKey if the generation exists.
func (s *CycleStore) Insert(ctx context.Context, c *domain.EvolutionCycle) error {
	if c == nil || c.Generation < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO evolution_cycles (` + cycleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		c.Generation, c.Timestamp, c.SurvivorIDs, c.DeadIDs, c.NewlyBornIDs,
		c.AvgFitness, c.BestFitness, c.TotalPnLSol, c.BestStrategyID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert evolution cycle: %w", err)
	}
	return nil
}

// GetByGeneration retrieves one cycle. Returns ErrNotFound if not exists.
func (s *CycleStore) GetByGeneration(ctx context.Context, generation int) (*domain.EvolutionCycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM evolution_cycles WHERE generation = $1`

	row := s.pool.QueryRow(ctx, query, generation)
	c, err := scanCycle(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cycle by generation: %w", err)
	}
	return c, nil
}

// GetAll retrieves all cycles, ordered by generation ASC.
func (s *CycleStore) GetAll(ctx context.Context) ([]*domain.EvolutionCycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM evolution_cycles ORDER BY generation ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*domain.EvolutionCycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle row: %w", err)
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycle rows: %w", err)
	}
	return cycles, nil
}

// Latest retrieves the highest-generation cycle. Returns ErrNotFound when empty.
func (s *CycleStore) Latest(ctx context.Context) (*domain.EvolutionCycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM evolution_cycles ORDER BY generation DESC LIMIT 1`

	row := s.pool.QueryRow(ctx, query)
	c, err := scanCycle(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest cycle: %w", err)
	}
	return c, nil
}

// DeleteAll removes every cycle.
func (s *CycleStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM evolution_cycles`); err != nil {
		return fmt.Errorf("delete all cycles: %w", err)
	}
	return nil
}

func scanCycle(row pgx.Row) (*domain.EvolutionCycle, error) {
	var c domain.EvolutionCycle
	err := row.Scan(
		&c.Generation, &c.Timestamp, &c.SurvivorIDs, &c.DeadIDs, &c.NewlyBornIDs,
		&c.AvgFitness, &c.BestFitness, &c.TotalPnLSol, &c.BestStrategyID,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
