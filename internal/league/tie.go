package league

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// DefaultTieSimulations is the trial count used when none is configured.
const DefaultTieSimulations = 10000

// legGoals maps a sampled result onto a nominal scoreline: a win counts
// 2-0 and a draw 1-1.
func legGoals(r Result) (host, visitor int) {
	switch r {
	case HomeWin:
		return 2, 0
	case AwayWin:
		return 0, 2
	default:
		return 1, 1
	}
}

// SimulateTie plays a two-legged knockout tie between team1 and team2
// simulations times. team1 hosts the first leg and team2 the second; both
// hosts get home advantage. Equal aggregates go to penalties, decided by a
// fair coin.
func (s *Simulator) SimulateTie(teams []Team, team1, team2 string, simulations int) (TieResult, error) {
	return s.SimulateTieContext(context.Background(), teams, team1, team2, simulations)
}

// ctxCheckEvery is how many tie trials run between context checks.
const ctxCheckEvery = 4096

// SimulateTieContext is SimulateTie stopping early with ctx's error once ctx
// is done.
func (s *Simulator) SimulateTieContext(ctx context.Context, teams []Team, team1, team2 string, simulations int) (TieResult, error) {
	if simulations <= 0 {
		return TieResult{}, fmt.Errorf("%w: simulations must be positive, got %d", ErrInvalidInput, simulations)
	}
	if team1 == team2 {
		return TieResult{}, fmt.Errorf("%w: a tie needs two different teams, got %s twice", ErrInvalidInput, team1)
	}
	idx, err := indexTeams(teams)
	if err != nil {
		return TieResult{}, err
	}
	i1, ok := idx[team1]
	if !ok {
		return TieResult{}, fmt.Errorf("%w: %s", ErrUnknownTeam, team1)
	}
	i2, ok := idx[team2]
	if !ok {
		return TieResult{}, fmt.Errorf("%w: %s", ErrUnknownTeam, team2)
	}
	r1, r2 := teams[i1].Rating, teams[i2].Rating

	// Both legs have fixed ratings, so the distributions are computed once.
	first := s.Model.Probabilities(r1, r2, true)
	second := s.Model.Probabilities(r2, r1, true)

	res := TieResult{Team1: team1, Team2: team2, Simulations: simulations}
	for i := 0; i < simulations; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return TieResult{}, err
			}
		}
		g1, g2 := legGoals(SampleResult(s.rng, first))
		h2, a1 := legGoals(SampleResult(s.rng, second))
		total1, total2 := g1+a1, g2+h2

		switch {
		case total1 > total2:
			res.Team1Advances++
		case total2 > total1:
			res.Team2Advances++
		default:
			res.Penalties++
			if s.rng.Intn(2) == 0 {
				res.Team1Advances++
			} else {
				res.Team2Advances++
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"team1":       team1,
		"team2":       team2,
		"simulations": simulations,
		"team1_pct":   res.Team1Pct(),
		"penalties":   res.Penalties,
	}).Debug("tie simulated")
	return res, nil
}
