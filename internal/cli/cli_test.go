package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

const ratingsCSV = `Rank,Club,Country,Level,Elo,From,To
1,Arsenal,ENG,1,2050,2025-01-01,2025-01-05
2,Chelsea,ENG,1,1950,2025-01-01,2025-01-05
3,Everton,ENG,1,1700,2025-01-01,2025-01-05
4,Fulham,ENG,1,1690,2025-01-01,2025-01-05
None,Legia,POL,1,1620,2025-01-01,2025-01-05
None,Lech,POL,1,1640,2025-01-01,2025-01-05
`

// setup imports the sample ratings into a fresh SQLite file and returns the
// flags pointing at it.
func setup(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "ratings.csv")
	if err := os.WriteFile(csvPath, []byte(ratingsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	db := []string{"-db-driver", "sqlite", "-db-url", filepath.Join(dir, "test.db"), "-log-level", "error"}

	var out bytes.Buffer
	args := append([]string{"import", "-file", csvPath}, db...)
	if err := Run(context.Background(), args, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), "imported 6 teams") {
		t.Fatalf("unexpected import output %q", out.String())
	}
	return db
}

func run(t *testing.T, db []string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), append(args, db...), &out, &bytes.Buffer{})
	return out.String(), err
}

func TestCommands(t *testing.T) {
	db := setup(t)
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"teams", []string{"teams", "-country", "POL"}, []string{"Lech", "Legia"}},
		{"schedule", []string{"schedule", "-country", "POL"}, []string{"Lech", "home", "away"}},
		{"odds", []string{"odds", "-home", "Legia", "-away", "Chelsea"}, []string{"Legia vs Chelsea"}},
		{"season", []string{"season", "-country", "ENG", "-seed", "3"}, []string{"ENG", "Arsenal", "12 matches"}},
		{"seasons", []string{"seasons", "-country", "ENG", "-limit", "3", "-n", "20", "-seed", "3"}, []string{"ENG (20 seasons)", "Chelsea"}},
		{"custom league", []string{"season", "-teams", "Legia, Arsenal", "-seed", "1"}, []string{"Custom league", "2 matches"}},
		{"tie", []string{"tie", "-team1", "Legia", "-team2", "Chelsea", "-n", "300", "-seed", "5"}, []string{"(n = 300)", "Penalties decided"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, db, tt.args...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestSeasonReproducibleWithSeed(t *testing.T) {
	db := setup(t)
	a, err := run(t, db, "season", "-country", "ENG", "-seed", "42")
	if err != nil {
		t.Fatal(err)
	}
	b, err := run(t, db, "season", "-country", "ENG", "-seed", "42")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("same seed produced different tables:\n%s\n%s", a, b)
	}
}

func TestCommandErrors(t *testing.T) {
	db := setup(t)

	if _, err := run(t, db, "tie", "-team1", "Legia", "-team2", "Nobody"); !errors.Is(err, league.ErrUnknownTeam) {
		t.Fatalf("got %v, want unknown team", err)
	}
	if _, err := run(t, db, "season"); !errors.Is(err, ErrUsage) {
		t.Fatalf("got %v, want usage error", err)
	}
	if _, err := run(t, db, "bogus"); !errors.Is(err, ErrUsage) {
		t.Fatalf("got %v, want usage error", err)
	}
	if _, err := run(t, db, "season", "-country", "ENG", "-draw-factor", "-1"); err == nil {
		t.Fatal("expected validation error for negative draw factor")
	}
	if err := Run(context.Background(), nil, &bytes.Buffer{}, &bytes.Buffer{}); !errors.Is(err, ErrUsage) {
		t.Fatalf("got %v, want usage error", err)
	}
}

func TestConfigFileFlag(t *testing.T) {
	db := setup(t)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("tie_simulations: 123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, db, "tie", "-config", path, "-team1", "Lech", "-team2", "Legia", "-seed", "9")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "(n = 123)") {
		t.Fatalf("config file not applied:\n%s", out)
	}
}
