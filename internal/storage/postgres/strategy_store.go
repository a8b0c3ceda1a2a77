package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
	"evo-trader/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
// Genes and performance are stored as JSONB; rows whose JSON no longer
// unmarshals are skipped on load rather than failing the whole query.
type StrategyStore struct {
	pool *Pool
	log  zerolog.Logger
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool, log zerolog.Logger) *StrategyStore {
	return &StrategyStore{pool: pool, log: log.With().Str("component", "strategy_store").Logger()}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

const strategyColumns = `
	id, name, generation, parent_ids, genes, performance,
	status, archetype, birth_timestamp, death_timestamp
`

// Insert adds a new strategy. Returns ErrDuplicateKey if the ID exists.
func (s *StrategyStore) Insert(ctx context.Context, g *domain.StrategyGenome) error {
	if g == nil || g.ID == "" {
		return storage.ErrInvalidInput
	}

	genes, perf, err := marshalGenome(g)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO strategies (` + strategyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.pool.Exec(ctx, query,
		g.ID, g.Name, g.Generation, g.ParentIDs, genes, perf,
		g.Status, g.Archetype, g.BirthTimestamp, g.DeathTimestamp,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// Update overwrites an existing strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Update(ctx context.Context, g *domain.StrategyGenome) error {
	if g == nil || g.ID == "" {
		return storage.ErrInvalidInput
	}

	genes, perf, err := marshalGenome(g)
	if err != nil {
		return err
	}

	query := `
		UPDATE strategies SET
			name = $2, generation = $3, parent_ids = $4, genes = $5,
			performance = $6, status = $7, archetype = $8,
			birth_timestamp = $9, death_timestamp = $10
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		g.ID, g.Name, g.Generation, g.ParentIDs, genes, perf,
		g.Status, g.Archetype, g.BirthTimestamp, g.DeathTimestamp,
	)
	if err != nil {
		return fmt.Errorf("update strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(ctx context.Context, id string) (*domain.StrategyGenome, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	g, err := scanStrategy(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy by id: %w", err)
	}
	return g, nil
}

// GetByStatus retrieves all strategies with the given status.
func (s *StrategyStore) GetByStatus(ctx context.Context, status string) ([]*domain.StrategyGenome, error) {
	query := `
		SELECT ` + strategyColumns + `
		FROM strategies
		WHERE status = $1
		ORDER BY generation ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("get strategies by status: %w", err)
	}
	defer rows.Close()

	return s.scanStrategies(rows)
}

// GetAll retrieves every strategy, dead ones included.
func (s *StrategyStore) GetAll(ctx context.Context) ([]*domain.StrategyGenome, error) {
	query := `
		SELECT ` + strategyColumns + `
		FROM strategies
		ORDER BY generation ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all strategies: %w", err)
	}
	defer rows.Close()

	return s.scanStrategies(rows)
}

// ResetPerformance zeroes the performance record of every non-dead strategy.
func (s *StrategyStore) ResetPerformance(ctx context.Context) error {
	perf, err := json.Marshal(domain.NewPerformance())
	if err != nil {
		return fmt.Errorf("marshal performance: %w", err)
	}

	query := `UPDATE strategies SET performance = $1 WHERE status != $2`
	if _, err := s.pool.Exec(ctx, query, perf, domain.StatusDead); err != nil {
		return fmt.Errorf("reset performance: %w", err)
	}
	return nil
}

// DeleteDead removes all dead strategies and reports how many were removed.
func (s *StrategyStore) DeleteDead(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM strategies WHERE status = $1`, domain.StatusDead)
	if err != nil {
		return 0, fmt.Errorf("delete dead strategies: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAll removes every strategy.
func (s *StrategyStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM strategies`); err != nil {
		return fmt.Errorf("delete all strategies: %w", err)
	}
	return nil
}

func marshalGenome(g *domain.StrategyGenome) (genes, perf []byte, err error) {
	genes, err = json.Marshal(g.Genes)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal genes: %w", err)
	}
	perf, err = json.Marshal(g.Performance)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal performance: %w", err)
	}
	return genes, perf, nil
}

type strategyRow struct {
	id             string
	name           string
	generation     int
	parentIDs      []string
	genes          []byte
	performance    []byte
	status         string
	archetype      string
	birthTimestamp time.Time
	deathTimestamp *time.Time
}

func (r *strategyRow) toDomain() (*domain.StrategyGenome, error) {
	g := &domain.StrategyGenome{
		ID:             r.id,
		Name:           r.name,
		Generation:     r.generation,
		ParentIDs:      r.parentIDs,
		Status:         r.status,
		Archetype:      r.archetype,
		BirthTimestamp: r.birthTimestamp,
		DeathTimestamp: r.deathTimestamp,
	}
	if err := json.Unmarshal(r.genes, &g.Genes); err != nil {
		return nil, fmt.Errorf("unmarshal genes: %w", err)
	}
	if err := json.Unmarshal(r.performance, &g.Performance); err != nil {
		return nil, fmt.Errorf("unmarshal performance: %w", err)
	}
	return g, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanStrategyRow(row scannable) (*strategyRow, error) {
	var r strategyRow
	err := row.Scan(
		&r.id, &r.name, &r.generation, &r.parentIDs, &r.genes, &r.performance,
		&r.status, &r.archetype, &r.birthTimestamp, &r.deathTimestamp,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanStrategy(row scannable) (*domain.StrategyGenome, error) {
	r, err := scanStrategyRow(row)
	if err != nil {
		return nil, err
	}
	return r.toDomain()
}

// scanStrategies converts rows, skipping any whose payload fails to decode.
func (s *StrategyStore) scanStrategies(rows interface {
	scannable
	Next() bool
	Err() error
}) ([]*domain.StrategyGenome, error) {
	var genomes []*domain.StrategyGenome

	for rows.Next() {
		r, err := scanStrategyRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy row: %w", err)
		}
		g, err := r.toDomain()
		if err != nil {
			s.log.Warn().Err(err).Str("strategy_id", r.id).Msg("skipping corrupt strategy row")
			continue
		}
		genomes = append(genomes, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategy rows: %w", err)
	}

	return genomes, nil
}
