package league

import (
	"fmt"
	"math"
)

const (
	DefaultDrawFactor    = 0.53
	DefaultHomeAdvantage = 1.2

	// eloScale is the rating gap that moves the logistic curve by one unit.
	eloScale = 400.0
)

// Model turns a pair of ratings into match outcome probabilities.
type Model struct {
	// DrawFactor scales the draw mass before normalisation.
	DrawFactor float64
	// HomeAdvantage multiplies the host's rating when home advantage applies.
	// Only the host is adjusted; the visitor's rating is left alone.
	HomeAdvantage float64
}

// DefaultModel returns the model with its usual constants.
func DefaultModel() Model {
	return Model{DrawFactor: DefaultDrawFactor, HomeAdvantage: DefaultHomeAdvantage}
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Validate rejects constants the model cannot produce a meaningful
// distribution from: NaN or infinite values, a negative draw factor, or a
// home multiplier that is not positive.
func (m Model) Validate() error {
	if !finite(m.DrawFactor) || m.DrawFactor < 0 {
		return fmt.Errorf("%w: draw factor must be finite and not negative, got %v", ErrInvalidInput, m.DrawFactor)
	}
	if !finite(m.HomeAdvantage) || m.HomeAdvantage <= 0 {
		return fmt.Errorf("%w: home advantage must be finite and positive, got %v", ErrInvalidInput, m.HomeAdvantage)
	}
	return nil
}

func (m Model) winProbability(home, away float64, homeGame bool) float64 {
	if homeGame {
		home *= m.HomeAdvantage
	}
	return 1 / (1 + math.Exp(-(home-away)/eloScale))
}

// RawDraw returns the draw probability before the three outcomes are
// normalised to sum to one.
func (m Model) RawDraw(home, away float64, homeGame bool) float64 {
	pHome := m.winProbability(home, away, homeGame)
	return m.DrawFactor * (1 - math.Abs(pHome-(1-pHome)))
}

// Probabilities returns the outcome distribution for a match between a host
// rated home and a visitor rated away, plus 3-1-0 expected points.
func (m Model) Probabilities(home, away float64, homeGame bool) Probabilities {
	pHome := m.winProbability(home, away, homeGame)
	pAway := 1 - pHome
	pDraw := m.DrawFactor * (1 - math.Abs(pHome-pAway))

	total := pHome + pAway + pDraw
	if total > 0 && !math.IsInf(total, 0) {
		pHome /= total
		pAway /= total
		pDraw /= total
	} else {
		pHome, pDraw, pAway = 1.0/3, 1.0/3, 1.0/3
	}

	return Probabilities{
		HomeWin:      pHome,
		Draw:         pDraw,
		AwayWin:      pAway,
		HomeExpected: 3*pHome + pDraw,
		AwayExpected: 3*pAway + pDraw,
	}
}
