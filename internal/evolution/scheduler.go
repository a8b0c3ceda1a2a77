// Package evolution drives the generation clock: it loads the living
// population on a fixed interval (or on demand), runs one genetic cycle,
// and persists the outcome before broadcasting it.
package evolution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"evo-trader/internal/domain"
	"evo-trader/internal/events"
	"evo-trader/internal/genetics"
	"evo-trader/internal/observability"
	"evo-trader/internal/storage"
	"evo-trader/internal/treasury"
)

// Scheduler runs evolution cycles on an interval and on manual triggers.
// At most one cycle runs at a time; triggers arriving mid-cycle coalesce
// into a single follow-up run.
type Scheduler struct {
	engine     *genetics.Engine
	strategies storage.StrategyStore
	cycles     storage.CycleStore
	treasuryDB storage.TreasuryStore
	manager    *treasury.Manager
	bus        *events.Bus
	log        zerolog.Logger

	interval time.Duration
	trigger  chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
	started bool
}

// New creates a scheduler. A non-positive interval defaults to one hour.
func New(
	engine *genetics.Engine,
	strategies storage.StrategyStore,
	cycles storage.CycleStore,
	treasuryDB storage.TreasuryStore,
	manager *treasury.Manager,
	bus *events.Bus,
	interval time.Duration,
	logger zerolog.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		engine:     engine,
		strategies: strategies,
		cycles:     cycles,
		treasuryDB: treasuryDB,
		manager:    manager,
		bus:        bus,
		log:        logger.With().Str("component", "evolution").Logger(),
		interval:   interval,
		trigger:    make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
}

// Start restores the generation counter from the latest persisted cycle
// and launches the interval loop. Idempotent.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	latest, err := s.cycles.Latest(ctx)
	switch {
	case err == nil:
		s.engine.SetGeneration(latest.Generation)
		s.log.Info().Int("generation", latest.Generation).Msg("restored generation counter")
	case errors.Is(err, storage.ErrNotFound):
		// fresh install, generation stays 0
	default:
		return fmt.Errorf("load latest cycle: %w", err)
	}

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop halts the interval loop and waits for an in-flight cycle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
}

// TriggerNow requests an immediate cycle. Returns false if one is
// already queued or running; the pending run covers the request.
func (s *Scheduler) TriggerNow() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Running reports whether a cycle is currently executing.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.RunCycle(ctx); err != nil {
		s.log.Error().Err(err).Msg("evolution cycle failed")
		s.bus.Publish(events.KindEvolutionError, map[string]string{"error": err.Error()})
	}
}

// RunCycle executes one generation transition synchronously: load the
// living population, evolve it, persist every change, reallocate the
// treasury, and broadcast the results.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	all, err := s.strategies.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load strategies: %w", err)
	}

	var pop []*domain.StrategyGenome
	for _, g := range all {
		if g.Status != domain.StatusDead {
			pop = append(pop, g)
		}
	}

	s.bus.Publish(events.KindEvolutionStarted, map[string]int{
		"generation": s.engine.Generation() + 1,
		"population": len(pop),
	})

	newPop, cycle := s.engine.RunCycle(pop)
	if cycle == nil {
		s.log.Warn().Msg("nothing to evolve")
		return nil
	}

	if err := s.persist(ctx, pop, newPop, cycle); err != nil {
		return err
	}

	s.reallocate(ctx, newPop)

	var born, dead []*domain.StrategyGenome
	known := make(map[string]struct{}, len(pop))
	for _, g := range pop {
		known[g.ID] = struct{}{}
		if g.Status == domain.StatusDead {
			dead = append(dead, g)
		}
	}
	for _, g := range newPop {
		if _, ok := known[g.ID]; !ok {
			born = append(born, g)
		}
	}

	if len(born) > 0 {
		s.bus.Publish(events.KindEvolutionBirths, born)
	}
	if len(dead) > 0 {
		s.bus.Publish(events.KindEvolutionDeaths, dead)
	}
	s.bus.Publish(events.KindEvolutionCompleted, cycle)

	observability.RecordEvolutionCycle(len(cycle.NewlyBornIDs), len(cycle.DeadIDs), cycle.AvgFitness, cycle.Generation)
	return nil
}

// persist writes the population delta: updates for everything that
// existed before the cycle (fitness, mutated genes, deaths) and inserts
// for newborns. The cycle record goes in last so a crash mid-write never
// claims a generation that is not fully stored.
func (s *Scheduler) persist(ctx context.Context, pop, newPop []*domain.StrategyGenome, cycle *domain.EvolutionCycle) error {
	known := make(map[string]struct{}, len(pop))
	for _, g := range pop {
		known[g.ID] = struct{}{}
	}

	// Deaths are marked in place on the loaded population by selection.
	for _, g := range pop {
		if g.Status == domain.StatusDead {
			if err := s.strategies.Update(ctx, g); err != nil {
				return fmt.Errorf("persist death %s: %w", g.ID, err)
			}
		}
	}

	for _, g := range newPop {
		if _, existed := known[g.ID]; existed {
			if err := s.strategies.Update(ctx, g); err != nil {
				return fmt.Errorf("persist strategy %s: %w", g.ID, err)
			}
			continue
		}
		if err := s.strategies.Insert(ctx, g); err != nil {
			return fmt.Errorf("persist newborn %s: %w", g.ID, err)
		}
	}

	if err := s.cycles.Insert(ctx, cycle); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			s.log.Warn().Int("generation", cycle.Generation).Msg("cycle record already exists")
			return nil
		}
		return fmt.Errorf("persist cycle %d: %w", cycle.Generation, err)
	}
	return nil
}

// reallocate rebalances the treasury across the surviving actives and
// persists the snapshot. Allocation failures are logged, not fatal: the
// next treasury write repairs the snapshot.
func (s *Scheduler) reallocate(ctx context.Context, newPop []*domain.StrategyGenome) {
	var active []*domain.StrategyGenome
	for _, g := range newPop {
		if g.IsActive() {
			active = append(active, g)
		}
	}

	s.manager.AllocateToStrategies(active)
	snapshot := s.manager.Snapshot()

	if err := s.treasuryDB.Save(ctx, snapshot); err != nil {
		s.log.Error().Err(err).Msg("persist treasury after reallocation")
	}
	s.bus.Publish(events.KindTreasuryUpdated, snapshot)
	observability.UpdateTreasury(snapshot.TotalSol, snapshot.LockedInPositions, snapshot.TotalPnL)
}
