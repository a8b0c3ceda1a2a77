package genetics

import (
	"sort"
	"time"

	"evo-trader/internal/domain"
)

// Selection is the three-way split of a ranked population.
type Selection struct {
	Survivors []*domain.StrategyGenome
	Mutators  []*domain.StrategyGenome
	Dead      []*domain.StrategyGenome
}

// Select ranks the non-dead population by stored fitness and splits it:
// top floor(N*SurvivorPercent) survive untouched, bottom
// floor(N*DeadPercent) are retired (status and death timestamp set on the
// genome), the middle band becomes mutation candidates. Entries that are
// already dead are ignored entirely.
func (e *Engine) Select(pop []*domain.StrategyGenome) Selection {
	alive := make([]*domain.StrategyGenome, 0, len(pop))
	for _, s := range pop {
		if s.Status != domain.StatusDead {
			alive = append(alive, s)
		}
	}

	sort.SliceStable(alive, func(i, j int) bool {
		return alive[i].Performance.FitnessScore > alive[j].Performance.FitnessScore
	})

	n := len(alive)
	nSurvive := int(float64(n) * e.cfg.SurvivorPercent)
	nDead := int(float64(n) * e.cfg.DeadPercent)
	if nSurvive+nDead > n {
		nDead = n - nSurvive
	}

	sel := Selection{
		Survivors: alive[:nSurvive],
		Mutators:  alive[nSurvive : n-nDead],
		Dead:      alive[n-nDead:],
	}

	now := time.Now().UTC()
	for _, s := range sel.Dead {
		s.Status = domain.StatusDead
		s.DeathTimestamp = &now
	}

	return sel
}
