package genetics

import (
	"time"

	"evo-trader/internal/domain"
)

// RunCycle executes one full generation transition: recompute fitness,
// select, breed survivor pairs, mutate the middle band, refill up to the
// target population size from survivor pairs, and emit the cycle record.
//
// An empty population is returned untouched with a nil cycle. Zero
// survivors (population too small for SurvivorPercent to keep anyone)
// still retires the bottom band; with fewer than two survivors no
// offspring are produced and the new population may fall short of the
// target.
func (e *Engine) RunCycle(pop []*domain.StrategyGenome) ([]*domain.StrategyGenome, *domain.EvolutionCycle) {
	if len(pop) == 0 {
		e.log.Warn().Msg("evolution cycle skipped: empty population")
		return pop, nil
	}

	totalPnL := 0.0
	for _, s := range pop {
		totalPnL += s.Performance.TotalPnL
		if s.Status != domain.StatusDead {
			s.Performance.FitnessScore = Fitness(s.Performance)
		}
	}

	sel := e.Select(pop)

	// Shuffle survivors and breed adjacent pairs; an odd one out simply
	// survives without breeding.
	shuffled := append([]*domain.StrategyGenome(nil), sel.Survivors...)
	e.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	var offspring []*domain.StrategyGenome
	for i := 0; i+1 < len(shuffled); i += 2 {
		offspring = append(offspring, e.Breed(shuffled[i], shuffled[i+1]))
	}

	// Mutators are perturbed on non-destructive copies: same identity,
	// fresh genes, re-derived archetype.
	mutated := make([]*domain.StrategyGenome, 0, len(sel.Mutators))
	for _, m := range sel.Mutators {
		c := m.Clone()
		c.Genes = e.Mutate(c.Genes, e.cfg.MutationRate)
		c.Archetype = ArchetypeOf(c.Genes)
		mutated = append(mutated, c)
	}

	newPop := make([]*domain.StrategyGenome, 0, e.cfg.PopulationSize)
	newPop = append(newPop, sel.Survivors...)
	newPop = append(newPop, offspring...)
	newPop = append(newPop, mutated...)

	// Force refill from survivor pairs only; with fewer than two
	// survivors the target cannot be reached.
	for len(newPop) < e.cfg.PopulationSize && len(sel.Survivors) >= 2 {
		i := e.rng.Intn(len(sel.Survivors))
		j := e.rng.Intn(len(sel.Survivors))
		for j == i {
			j = e.rng.Intn(len(sel.Survivors))
		}
		child := e.Breed(sel.Survivors[i], sel.Survivors[j])
		offspring = append(offspring, child)
		newPop = append(newPop, child)
	}

	e.generation++

	cycle := e.buildCycleRecord(sel, offspring, totalPnL)
	e.log.Info().
		Int("generation", cycle.Generation).
		Int("survivors", len(sel.Survivors)).
		Int("dead", len(sel.Dead)).
		Int("offspring", len(offspring)).
		Float64("avg_fitness", cycle.AvgFitness).
		Float64("best_fitness", cycle.BestFitness).
		Msg("evolution cycle complete")

	return newPop, cycle
}

func (e *Engine) buildCycleRecord(sel Selection, offspring []*domain.StrategyGenome, totalPnL float64) *domain.EvolutionCycle {
	cycle := &domain.EvolutionCycle{
		Generation:  e.generation,
		Timestamp:   time.Now().UTC(),
		TotalPnLSol: totalPnL,
	}

	evaluated := 0
	sum := 0.0
	scan := func(list []*domain.StrategyGenome) {
		for _, s := range list {
			f := s.Performance.FitnessScore
			sum += f
			evaluated++
			if f > cycle.BestFitness || cycle.BestStrategyID == "" {
				cycle.BestFitness = f
				cycle.BestStrategyID = s.ID
			}
		}
	}
	scan(sel.Survivors)
	scan(sel.Mutators)
	scan(sel.Dead)
	if evaluated > 0 {
		cycle.AvgFitness = sum / float64(evaluated)
	}

	for _, s := range sel.Survivors {
		cycle.SurvivorIDs = append(cycle.SurvivorIDs, s.ID)
	}
	for _, s := range sel.Dead {
		cycle.DeadIDs = append(cycle.DeadIDs, s.ID)
	}
	for _, s := range offspring {
		cycle.NewlyBornIDs = append(cycle.NewlyBornIDs, s.ID)
	}
	return cycle
}
