package league

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"

	"github.com/sirupsen/logrus"
)

// Simulator plays matches, seasons and ties with its own random source.
// It is not safe for concurrent use; give each goroutine its own Simulator.
type Simulator struct {
	Model Model

	rng *rand.Rand
	log logrus.FieldLogger
}

// NewSimulator returns a simulator drawing from rng. A nil logger discards
// output.
func NewSimulator(model Model, rng *rand.Rand, log logrus.FieldLogger) *Simulator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Simulator{Model: model, rng: rng, log: log}
}

// PlayMatch samples one result for a fixture between two rated teams.
func (s *Simulator) PlayMatch(home, away float64, homeGame bool) (Result, Probabilities) {
	p := s.Model.Probabilities(home, away, homeGame)
	return SampleResult(s.rng, p), p
}

// indexTeams maps each team name to its input position and rejects inputs a
// simulation cannot run on.
func indexTeams(teams []Team) (map[string]int, error) {
	idx := make(map[string]int, len(teams))
	for i, t := range teams {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("%w: team %d has no name", ErrInvalidInput, i)
		}
		if math.IsNaN(t.Rating) || math.IsInf(t.Rating, 0) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRating, t.Name)
		}
		if _, ok := idx[t.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, t.Name)
		}
		idx[t.Name] = i
	}
	return idx, nil
}
