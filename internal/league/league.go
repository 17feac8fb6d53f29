package league

import "fmt"

// Team is a club with a fixed strength rating for the duration of a run.
type Team struct {
	Name    string  `json:"name"`
	Country string  `json:"country,omitempty"`
	Rating  float64 `json:"rating"`
}

// Venue marks whether the host of a fixture gets home advantage.
type Venue int

const (
	VenueHome Venue = iota
	VenueAway
)

func (v Venue) String() string {
	if v == VenueHome {
		return "home"
	}
	return "away"
}

func (v Venue) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Venue) UnmarshalText(b []byte) error {
	switch string(b) {
	case "home":
		*v = VenueHome
	case "away":
		*v = VenueAway
	default:
		return fmt.Errorf("%w: unknown venue %q", ErrInvalidInput, b)
	}
	return nil
}

// Fixture is one scheduled match of a season.
type Fixture struct {
	Home  string `json:"home"`
	Away  string `json:"away"`
	Venue Venue  `json:"venue"`
}

// Probabilities holds the outcome distribution of a single match and the
// points each side is expected to take from it.
type Probabilities struct {
	HomeWin      float64 `json:"home_win"`
	Draw         float64 `json:"draw"`
	AwayWin      float64 `json:"away_win"`
	HomeExpected float64 `json:"home_expected_points"`
	AwayExpected float64 `json:"away_expected_points"`
}

// StandingsRow holds the final table info for one team.
type StandingsRow struct {
	Team           string  `json:"team"`
	Rank           int     `json:"rank"`
	Points         int     `json:"points"`
	ExpectedPoints float64 `json:"expected_points"`
	Difference     float64 `json:"difference"`
	Wins           int     `json:"wins"`
	Draws          int     `json:"draws"`
	Losses         int     `json:"losses"`
}

// Standings is the table produced by one simulated season.
type Standings struct {
	Rows    []StandingsRow `json:"rows"`
	Matches int            `json:"matches"`
	Draws   int            `json:"draws"`
}

// TieResult summarises repeated simulations of a two-legged tie.
type TieResult struct {
	Team1         string `json:"team1"`
	Team2         string `json:"team2"`
	Simulations   int    `json:"simulations"`
	Team1Advances int    `json:"team1_advances"`
	Team2Advances int    `json:"team2_advances"`
	Penalties     int    `json:"penalties"`
}

func (r TieResult) pct(n int) float64 {
	if r.Simulations == 0 {
		return 0
	}
	return float64(n) / float64(r.Simulations) * 100
}

// Team1Pct is the share of trials won by Team1, in percent.
func (r TieResult) Team1Pct() float64 { return r.pct(r.Team1Advances) }

// Team2Pct is the share of trials won by Team2, in percent.
func (r TieResult) Team2Pct() float64 { return r.pct(r.Team2Advances) }

// PenaltiesPct is the share of trials settled by a shootout, in percent.
func (r TieResult) PenaltiesPct() float64 { return r.pct(r.Penalties) }

// AggregateRow holds one team's averages over many simulated seasons.
type AggregateRow struct {
	Team               string  `json:"team"`
	Rank               int     `json:"rank"`
	MeanPoints         float64 `json:"mean_points"`
	PointsStdDev       float64 `json:"points_stddev"`
	MeanRank           float64 `json:"mean_rank"`
	MeanExpectedPoints float64 `json:"mean_expected_points"`
	TitlePct           float64 `json:"title_pct"`
}
