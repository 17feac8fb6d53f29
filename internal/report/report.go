// Package report renders simulation results as aligned text tables.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

func newWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
}

// Standings prints a season table with actual and expected points.
func Standings(w io.Writer, label string, s league.Standings) error {
	fmt.Fprintln(w, label)
	tw := newWriter(w)
	fmt.Fprintln(tw, "Rank\tTeam\tW\tD\tL\tPts\txPts\tDiff\t")
	for _, r := range s.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%.2f\t%+.2f\t\n",
			r.Rank, r.Team, r.Wins, r.Draws, r.Losses, r.Points, r.ExpectedPoints, r.Difference)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d matches, %d drawn\n", s.Matches, s.Draws)
	return err
}

// Aggregate prints averages over many simulated seasons.
func Aggregate(w io.Writer, label string, seasons int, rows []league.AggregateRow) error {
	fmt.Fprintf(w, "%s (%d seasons)\n", label, seasons)
	tw := newWriter(w)
	fmt.Fprintln(tw, "Rank\tTeam\tAvg Pts\tStdDev\tAvg xPts\tAvg Pos\tTitle %\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.1f\t\n",
			r.Rank, r.Team, r.MeanPoints, r.PointsStdDev, r.MeanExpectedPoints, r.MeanRank, r.TitlePct)
	}
	return tw.Flush()
}

// Tie prints the advancement summary of a two-legged tie.
func Tie(w io.Writer, r league.TieResult) error {
	fmt.Fprintf(w, "Two-legged tie: %s vs %s (n = %d)\n", r.Team1, r.Team2, r.Simulations)
	tw := newWriter(w)
	fmt.Fprintln(tw, "Team\tAdvances\tShare\t")
	fmt.Fprintf(tw, "%s\t%d\t%.2f%%\t\n", r.Team1, r.Team1Advances, r.Team1Pct())
	fmt.Fprintf(tw, "%s\t%d\t%.2f%%\t\n", r.Team2, r.Team2Advances, r.Team2Pct())
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Penalties decided %d of %d (%.2f%%)\n", r.Penalties, r.Simulations, r.PenaltiesPct())
	return err
}

// Odds prints the outcome distribution of a single match.
func Odds(w io.Writer, home, away string, p league.Probabilities) error {
	tw := newWriter(w)
	fmt.Fprintln(tw, "Match\tHome\tDraw\tAway\txPts H\txPts A\t")
	fmt.Fprintf(tw, "%s vs %s\t%.1f%%\t%.1f%%\t%.1f%%\t%.2f\t%.2f\t\n",
		home, away, p.HomeWin*100, p.Draw*100, p.AwayWin*100, p.HomeExpected, p.AwayExpected)
	return tw.Flush()
}

// Schedule prints fixtures in playing order.
func Schedule(w io.Writer, label string, fixtures []league.Fixture) error {
	fmt.Fprintln(w, label)
	tw := newWriter(w)
	fmt.Fprintln(tw, "#\tHome\tAway\tVenue\t")
	for i, f := range fixtures {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", i+1, f.Home, f.Away, f.Venue)
	}
	return tw.Flush()
}
