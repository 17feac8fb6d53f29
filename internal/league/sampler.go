package league

// Result is the outcome of a single match from the host's point of view.
type Result int

const (
	HomeWin Result = iota
	Draw
	AwayWin
)

func (r Result) String() string {
	switch r {
	case HomeWin:
		return "home_win"
	case Draw:
		return "draw"
	default:
		return "away_win"
	}
}

// Float64er is the slice of *rand.Rand the sampler needs.
type Float64er interface {
	Float64() float64
}

// SampleResult draws one outcome by walking the cumulative distribution
// home win, draw, away win.
func SampleResult(r Float64er, p Probabilities) Result {
	u := r.Float64()
	switch {
	case u < p.HomeWin:
		return HomeWin
	case u < p.HomeWin+p.Draw:
		return Draw
	default:
		return AwayWin
	}
}
