// Package cli implements the leaguesim command line.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/api"
	"github.com/utakatalp/league-montecarlo/internal/config"
	"github.com/utakatalp/league-montecarlo/internal/league"
	"github.com/utakatalp/league-montecarlo/internal/random"
	"github.com/utakatalp/league-montecarlo/internal/ratings"
	"github.com/utakatalp/league-montecarlo/internal/report"
	"github.com/utakatalp/league-montecarlo/internal/store"
)

const usage = `usage: leaguesim <command> [flags]

commands:
  import     load a ratings CSV into the database
  teams      list stored teams
  schedule   print the double round-robin for a competition
  odds       print outcome probabilities for one match
  season     simulate one season
  seasons    simulate many seasons and average the tables
  tie        simulate a two-legged knockout tie
  serve      run the HTTP API
`

// ErrUsage is returned when the command line cannot be understood.
var ErrUsage = errors.New("usage error")

// env bundles what every command needs once flags are parsed.
type env struct {
	cfg    config.Config
	log    *logrus.Logger
	store  *store.Store
	stdout io.Writer
}

// commonFlags registers the settings shared by all commands on fs. Defaults
// come from cfg, which already holds environment values.
func commonFlags(fs *flag.FlagSet, cfg *config.Config) *string {
	file := fs.String("config", cfg.File, "YAML config file")
	fs.StringVar(&cfg.DatabaseDriver, "db-driver", cfg.DatabaseDriver, "database driver (sqlite or postgres)")
	fs.StringVar(&cfg.DatabaseURL, "db-url", cfg.DatabaseURL, "database connection string")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed, 0 for a fresh one")
	fs.Float64Var(&cfg.DrawFactor, "draw-factor", cfg.DrawFactor, "draw probability scale")
	fs.Float64Var(&cfg.HomeAdvantage, "home-advantage", cfg.HomeAdvantage, "host rating multiplier")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	return file
}

// competitionFlags registers the flags that select teams for a simulation.
type competitionFlags struct {
	country string
	limit   int
	teams   string
}

func (c *competitionFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.country, "country", "", "country code to draw the league from")
	fs.IntVar(&c.limit, "limit", 0, "keep only the strongest N teams of the country")
	fs.StringVar(&c.teams, "teams", "", "comma separated team names, overrides -country")
}

func (c competitionFlags) load(ctx context.Context, s *store.Store) ([]league.Team, string, error) {
	if c.teams != "" {
		var names []string
		for _, n := range strings.Split(c.teams, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		teams, err := s.TeamsByName(ctx, names)
		return teams, "Custom league", err
	}
	if c.country == "" {
		return nil, "", fmt.Errorf("%w: -country or -teams is required", ErrUsage)
	}
	teams, err := s.Teams(ctx, store.Filter{Country: c.country, Limit: c.limit})
	if err != nil {
		return nil, "", err
	}
	if len(teams) == 0 {
		return nil, "", fmt.Errorf("no teams stored for country %s", c.country)
	}
	return teams, c.country, nil
}

// Run executes one leaguesim command.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return ErrUsage
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	name, rest := args[0], args[1:]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := commonFlags(fs, &cfg)

	var cmd func(context.Context, *env) error
	switch name {
	case "import":
		cmd = importCmd(fs)
	case "teams":
		cmd = teamsCmd(fs)
	case "schedule":
		cmd = scheduleCmd(fs)
	case "odds":
		cmd = oddsCmd(fs)
	case "season":
		cmd = seasonCmd(fs)
	case "seasons":
		cmd = seasonsCmd(fs, &cfg)
	case "tie":
		cmd = tieCmd(fs, &cfg)
	case "serve":
		cmd = serveCmd(fs, &cfg)
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *file != "" && *file != cfg.File {
		if err := cfg.LoadFile(*file); err != nil {
			return err
		}
		// Flags given explicitly still win over the file.
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := cfg.Logger()
	log.SetOutput(stderr)

	s, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		return err
	}
	return cmd(ctx, &env{cfg: cfg, log: log, store: s, stdout: stdout})
}

func (e *env) simulator() (*league.Simulator, error) {
	rng, seed, err := random.New(e.cfg.Seed)
	if err != nil {
		return nil, err
	}
	e.log.WithField("seed", seed).Info("random source ready")
	return league.NewSimulator(e.cfg.Model(), rng, e.log), nil
}

func importCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	path := fs.String("file", "", "ratings CSV to import")
	replace := fs.Bool("replace", false, "delete stored teams before importing")
	return func(ctx context.Context, e *env) error {
		if *path == "" {
			return fmt.Errorf("%w: -file is required", ErrUsage)
		}
		f, err := os.Open(*path)
		if err != nil {
			return fmt.Errorf("opening ratings: %w", err)
		}
		defer f.Close()
		teams, err := ratings.ParseCSV(f)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", *path, err)
		}
		if *replace {
			if err := e.store.DeleteAllTeams(ctx); err != nil {
				return err
			}
		}
		if err := e.store.UpsertTeams(ctx, teams); err != nil {
			return err
		}
		_, err = fmt.Fprintf(e.stdout, "imported %d teams from %s\n", len(teams), *path)
		return err
	}
}

func teamsCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	var comp competitionFlags
	comp.register(fs)
	return func(ctx context.Context, e *env) error {
		teams, err := e.store.Teams(ctx, store.Filter{Country: comp.country, Limit: comp.limit})
		if err != nil {
			return err
		}
		for _, t := range teams {
			fmt.Fprintf(e.stdout, "%s\t%s\t%.1f\n", t.Name, t.Country, t.Rating)
		}
		return nil
	}
}

func scheduleCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	var comp competitionFlags
	comp.register(fs)
	return func(ctx context.Context, e *env) error {
		teams, label, err := comp.load(ctx, e.store)
		if err != nil {
			return err
		}
		return report.Schedule(e.stdout, label, league.GenerateFixtures(league.Names(teams)))
	}
}

func oddsCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	home := fs.String("home", "", "host team")
	away := fs.String("away", "", "visiting team")
	neutral := fs.Bool("neutral", false, "play without home advantage")
	return func(ctx context.Context, e *env) error {
		if *home == "" || *away == "" {
			return fmt.Errorf("%w: -home and -away are required", ErrUsage)
		}
		teams, err := e.store.TeamsByName(ctx, []string{*home, *away})
		if err != nil {
			return err
		}
		p := e.cfg.Model().Probabilities(teams[0].Rating, teams[1].Rating, !*neutral)
		return report.Odds(e.stdout, *home, *away, p)
	}
}

func seasonCmd(fs *flag.FlagSet) func(context.Context, *env) error {
	var comp competitionFlags
	comp.register(fs)
	return func(ctx context.Context, e *env) error {
		teams, label, err := comp.load(ctx, e.store)
		if err != nil {
			return err
		}
		sim, err := e.simulator()
		if err != nil {
			return err
		}
		table, err := sim.SimulateSeason(teams)
		if err != nil {
			return err
		}
		return report.Standings(e.stdout, label, table)
	}
}

func seasonsCmd(fs *flag.FlagSet, cfg *config.Config) func(context.Context, *env) error {
	var comp competitionFlags
	comp.register(fs)
	fs.IntVar(&cfg.SeasonSimulations, "n", cfg.SeasonSimulations, "number of seasons")
	return func(ctx context.Context, e *env) error {
		teams, label, err := comp.load(ctx, e.store)
		if err != nil {
			return err
		}
		sim, err := e.simulator()
		if err != nil {
			return err
		}
		rows, err := sim.SimulateSeasonsContext(ctx, teams, e.cfg.SeasonSimulations)
		if err != nil {
			return err
		}
		return report.Aggregate(e.stdout, label, e.cfg.SeasonSimulations, rows)
	}
}

func tieCmd(fs *flag.FlagSet, cfg *config.Config) func(context.Context, *env) error {
	team1 := fs.String("team1", "", "team hosting the first leg")
	team2 := fs.String("team2", "", "team hosting the second leg")
	fs.IntVar(&cfg.TieSimulations, "n", cfg.TieSimulations, "number of simulated ties")
	return func(ctx context.Context, e *env) error {
		if *team1 == "" || *team2 == "" {
			return fmt.Errorf("%w: -team1 and -team2 are required", ErrUsage)
		}
		teams, err := e.store.TeamsByName(ctx, []string{*team1, *team2})
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %v", league.ErrUnknownTeam, err)
		}
		if err != nil {
			return err
		}
		sim, err := e.simulator()
		if err != nil {
			return err
		}
		res, err := sim.SimulateTieContext(ctx, teams, *team1, *team2, e.cfg.TieSimulations)
		if err != nil {
			return err
		}
		return report.Tie(e.stdout, res)
	}
}

func serveCmd(fs *flag.FlagSet, cfg *config.Config) func(context.Context, *env) error {
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address")
	return func(ctx context.Context, e *env) error {
		srv := api.NewServer(e.store, api.Settings{
			Model:             e.cfg.Model(),
			TieSimulations:    e.cfg.TieSimulations,
			SeasonSimulations: e.cfg.SeasonSimulations,
			Seed:              e.cfg.Seed,
		}, e.log)
		httpSrv := &http.Server{
			Addr:              e.cfg.HTTPAddr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			e.log.WithField("addr", e.cfg.HTTPAddr).Info("listening")
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("serving http: %w", err)
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		e.log.Info("server stopped")
		return nil
	}
}
