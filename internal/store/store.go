// Package store keeps team ratings in Postgres or SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when a team is not in the store.
var ErrNotFound = errors.New("team not found")

// Store wraps a database connection and reads and writes team ratings.
type Store struct {
	DB     *sql.DB
	driver string
	log    logrus.FieldLogger
}

// Filter narrows a team listing. Zero values mean no restriction.
type Filter struct {
	Country string
	Limit   int
}

// Open opens a connection with the given driver and verifies it early.
func Open(ctx context.Context, driver, dsn string, log logrus.FieldLogger) (*Store, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database url is required")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		// A second connection to ":memory:" would see an empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithField("driver", driver).Info("database connected")
	return &Store{DB: db, driver: driver, log: log}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

var placeholder = regexp.MustCompile(`\$\d+`)

// rebind rewrites $N placeholders for drivers that expect '?'. Queries in
// this package use each placeholder once, in order.
func (s *Store) rebind(q string) string {
	if s.driver != DriverSQLite {
		return q
	}
	return placeholder.ReplaceAllString(q, "?")
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS teams (
		    name    TEXT             PRIMARY KEY,
		    country TEXT             NOT NULL DEFAULT '',
		    rating  DOUBLE PRECISION NOT NULL DEFAULT 1500
		);`,
		`CREATE INDEX IF NOT EXISTS teams_country_rating ON teams (country, rating);`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	s.log.Info("schema migrated")
	return nil
}

// UpsertTeams inserts teams, replacing the country and rating of any team
// already stored under the same name. All rows are written in one
// transaction.
func (s *Store) UpsertTeams(ctx context.Context, teams []league.Team) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin UpsertTeams tx: %w", err)
	}
	defer tx.Rollback()

	q := s.rebind(`
    INSERT INTO teams (name, country, rating)
    VALUES ($1, $2, $3)
    ON CONFLICT (name) DO UPDATE SET country = excluded.country, rating = excluded.rating
    `)
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, t := range teams {
		if _, err := stmt.ExecContext(ctx, t.Name, t.Country, t.Rating); err != nil {
			return fmt.Errorf("upserting team %s: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit UpsertTeams tx: %w", err)
	}
	s.log.WithField("teams", len(teams)).Info("teams stored")
	return nil
}

// Teams lists teams strongest first, optionally limited to one country and
// truncated to the top f.Limit.
func (s *Store) Teams(ctx context.Context, f Filter) ([]league.Team, error) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString(`SELECT name, country, rating FROM teams`)
	if f.Country != "" {
		args = append(args, f.Country)
		fmt.Fprintf(&b, ` WHERE country = $%d`, len(args))
	}
	b.WriteString(` ORDER BY rating DESC, name ASC`)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(b.String()), args...)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	teams := []league.Team{}
	for rows.Next() {
		var t league.Team
		if err := rows.Scan(&t.Name, &t.Country, &t.Rating); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams rows: %w", err)
	}
	return teams, nil
}

// Team returns a single team by name.
func (s *Store) Team(ctx context.Context, name string) (league.Team, error) {
	var t league.Team
	err := s.DB.QueryRowContext(ctx,
		s.rebind(`SELECT name, country, rating FROM teams WHERE name = $1`), name,
	).Scan(&t.Name, &t.Country, &t.Rating)
	if errors.Is(err, sql.ErrNoRows) {
		return league.Team{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return league.Team{}, fmt.Errorf("querying team %s: %w", name, err)
	}
	return t, nil
}

// TeamsByName returns the named teams in the order given.
func (s *Store) TeamsByName(ctx context.Context, names []string) ([]league.Team, error) {
	teams := make([]league.Team, 0, len(names))
	for _, name := range names {
		t, err := s.Team(ctx, name)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, nil
}

// DeleteAllTeams empties the ratings table.
func (s *Store) DeleteAllTeams(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM teams;`); err != nil {
		return fmt.Errorf("deleting all teams: %w", err)
	}
	return nil
}
