package league

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
)

// DefaultSeasonSimulations is the season count used when none is configured.
const DefaultSeasonSimulations = 100

type seasonTotals struct {
	points   []float64
	rankSum  int
	expected float64
	titles   int
}

// SimulateSeasons plays n independent seasons and averages each team's
// points and finishing position. Rows are ordered by mean points with fresh
// ranks; teams level on mean points keep input order.
func (s *Simulator) SimulateSeasons(teams []Team, n int) ([]AggregateRow, error) {
	return s.SimulateSeasonsContext(context.Background(), teams, n)
}

// SimulateSeasonsContext is SimulateSeasons stopping early with ctx's error
// once ctx is done.
func (s *Simulator) SimulateSeasonsContext(ctx context.Context, teams []Team, n int) ([]AggregateRow, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: season count must be positive, got %d", ErrInvalidInput, n)
	}
	idx, err := indexTeams(teams)
	if err != nil {
		return nil, err
	}

	totals := make([]seasonTotals, len(teams))
	for i := range totals {
		totals[i].points = make([]float64, n)
	}
	fixtures := GenerateFixtures(Names(teams))
	for run := 0; run < n; run++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := s.PlayFixtures(teams, fixtures)
		if err != nil {
			return nil, fmt.Errorf("season %d: %w", run+1, err)
		}
		for _, row := range table.Rows {
			t := &totals[idx[row.Team]]
			t.points[run] = float64(row.Points)
			t.rankSum += row.Rank
			t.expected += row.ExpectedPoints
			if row.Rank == 1 {
				t.titles++
			}
		}
	}

	rows := make([]AggregateRow, len(teams))
	for i, team := range teams {
		t := totals[i]
		row := AggregateRow{
			Team:               team.Name,
			MeanPoints:         stat.Mean(t.points, nil),
			MeanRank:           float64(t.rankSum) / float64(n),
			MeanExpectedPoints: t.expected / float64(n),
			TitlePct:           float64(t.titles) / float64(n) * 100,
		}
		if n > 1 {
			row.PointsStdDev = stat.StdDev(t.points, nil)
		}
		rows[i] = row
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MeanPoints > rows[j].MeanPoints
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	if len(rows) > 0 {
		s.log.WithFields(logrus.Fields{
			"teams":   len(teams),
			"seasons": n,
			"leader":  rows[0].Team,
		}).Debug("seasons aggregated")
	}
	return rows, nil
}
