package league

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// tally accumulates one team's season. Tallies are allocated up front for
// every team so a match can only ever update an existing record.
type tally struct {
	points              int
	expected            float64
	wins, draws, losses int
}

// SimulateSeason plays a full double round-robin between teams and returns
// the final table.
func (s *Simulator) SimulateSeason(teams []Team) (Standings, error) {
	return s.PlayFixtures(teams, GenerateFixtures(Names(teams)))
}

// PlayFixtures simulates the given fixtures in order. Every team a fixture
// references must be present in teams; this is checked before any match is
// played.
func (s *Simulator) PlayFixtures(teams []Team, fixtures []Fixture) (Standings, error) {
	idx, err := indexTeams(teams)
	if err != nil {
		return Standings{}, err
	}
	for _, f := range fixtures {
		if _, ok := idx[f.Home]; !ok {
			return Standings{}, fmt.Errorf("%w: %s", ErrUnknownTeam, f.Home)
		}
		if _, ok := idx[f.Away]; !ok {
			return Standings{}, fmt.Errorf("%w: %s", ErrUnknownTeam, f.Away)
		}
	}

	tallies := make([]tally, len(teams))
	draws := 0
	for _, f := range fixtures {
		h, a := idx[f.Home], idx[f.Away]
		home, away := &tallies[h], &tallies[a]

		result, p := s.PlayMatch(teams[h].Rating, teams[a].Rating, f.Venue == VenueHome)
		switch result {
		case HomeWin:
			home.points += 3
			home.wins++
			away.losses++
		case AwayWin:
			away.points += 3
			away.wins++
			home.losses++
		default:
			home.points++
			away.points++
			home.draws++
			away.draws++
			draws++
		}
		home.expected += p.HomeExpected
		away.expected += p.AwayExpected
	}

	table := Standings{
		Rows:    rankTallies(teams, tallies),
		Matches: len(fixtures),
		Draws:   draws,
	}
	if len(table.Rows) > 0 {
		s.log.WithFields(logrus.Fields{
			"teams":   len(teams),
			"matches": table.Matches,
			"draws":   table.Draws,
			"leader":  table.Rows[0].Team,
			"points":  table.Rows[0].Points,
		}).Debug("season simulated")
	}
	return table, nil
}

// rankTallies sorts teams by points, keeping input order between teams on
// equal points, and assigns ranks 1..K.
func rankTallies(teams []Team, tallies []tally) []StandingsRow {
	rows := make([]StandingsRow, len(teams))
	for i, t := range teams {
		tl := tallies[i]
		rows[i] = StandingsRow{
			Team:           t.Name,
			Points:         tl.points,
			ExpectedPoints: tl.expected,
			Difference:     float64(tl.points) - tl.expected,
			Wins:           tl.wins,
			Draws:          tl.draws,
			Losses:         tl.losses,
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Points > rows[j].Points
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
