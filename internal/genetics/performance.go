package genetics

import (
	"math"

	"evo-trader/internal/domain"
	"evo-trader/internal/randutil"
)

// Fitness scores a performance record into [0, 100]. Weighted blend of
// PnL, win rate, Sharpe and consistency; stored on the genome rather
// than recomputed ad hoc so rankings and events agree.
func Fitness(p domain.Performance) float64 {
	pnlScore := randutil.Clamp(50+p.TotalPnL*10, 0, 100)
	winRateScore := p.WinRate * 100
	sharpeScore := randutil.Clamp(50+p.SharpeRatio*20, 0, 100)
	consistencyScore := math.Max(0, 100-p.MaxDrawdown*200)

	score := 0.4*pnlScore + 0.25*winRateScore + 0.2*sharpeScore + 0.15*consistencyScore
	return randutil.Clamp(score, 0, 100)
}

// ApplyTrade folds one closed trade into a performance record.
// The Sharpe denominator is the coarse approximation |avgPnL|*0.5 + 0.01,
// not a true standard deviation; replacing it does not affect any other
// component.
func ApplyTrade(p domain.Performance, pnlSol, pnlPercent, holdMinutes float64) domain.Performance {
	wins := int(math.Round(p.WinRate * float64(p.TradesExecuted)))
	if pnlSol > 0 {
		wins++
	}

	p.AvgHoldTime = (p.AvgHoldTime*float64(p.TradesExecuted) + holdMinutes) / float64(p.TradesExecuted+1)
	p.TradesExecuted++
	p.WinRate = float64(wins) / float64(p.TradesExecuted)
	p.TotalPnL += pnlSol

	avgPnL := p.TotalPnL / float64(p.TradesExecuted)
	sigma := math.Abs(avgPnL)*0.5 + 0.01
	p.SharpeRatio = avgPnL / sigma

	// Worst single-trade loss, as a fraction of position size.
	if pnlPercent < 0 && -pnlPercent > p.MaxDrawdown {
		p.MaxDrawdown = -pnlPercent
	}

	p.FitnessScore = Fitness(p)
	return p
}
