package league

import "testing"

type fixedDraw float64

func (f fixedDraw) Float64() float64 { return float64(f) }

func TestSampleResultWalksCumulativeDistribution(t *testing.T) {
	p := Probabilities{HomeWin: 0.5, Draw: 0.3, AwayWin: 0.2}
	tests := []struct {
		u    float64
		want Result
	}{
		{0, HomeWin},
		{0.49, HomeWin},
		{0.5, Draw},
		{0.79, Draw},
		{0.8, AwayWin},
		{0.999, AwayWin},
	}
	for _, tt := range tests {
		if got := SampleResult(fixedDraw(tt.u), p); got != tt.want {
			t.Errorf("u=%v: got %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestSampleResultSkipsEmptyDraw(t *testing.T) {
	p := Probabilities{HomeWin: 0.4, Draw: 0, AwayWin: 0.6}
	if got := SampleResult(fixedDraw(0.4), p); got != AwayWin {
		t.Fatalf("got %v, want %v", got, AwayWin)
	}
}
