// Package api exposes the simulator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/league"
	"github.com/utakatalp/league-montecarlo/internal/random"
	"github.com/utakatalp/league-montecarlo/internal/store"
)

// TeamSource is the rating lookup the handlers need.
type TeamSource interface {
	Teams(ctx context.Context, f store.Filter) ([]league.Team, error)
	Team(ctx context.Context, name string) (league.Team, error)
	TeamsByName(ctx context.Context, names []string) ([]league.Team, error)
}

// Settings are the defaults applied when a request leaves a field empty.
type Settings struct {
	Model             league.Model
	TieSimulations    int
	SeasonSimulations int
	Seed              int64
}

// Upper bounds on trial counts a single request may ask for.
const (
	MaxSeasonSimulations = 100_000
	MaxTieSimulations    = 10_000_000
)

// trials resolves a requested trial count against its default and cap.
func trials(requested, fallback, limit int) (int, error) {
	n := requested
	if n == 0 {
		n = fallback
	}
	if n > limit {
		return 0, fmt.Errorf("%w: simulations must be at most %d, got %d", league.ErrInvalidInput, limit, n)
	}
	return n, nil
}

// Server handles simulation requests.
type Server struct {
	teams    TeamSource
	settings Settings
	log      logrus.FieldLogger
}

// NewServer returns a server reading ratings from teams.
func NewServer(teams TeamSource, settings Settings, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{teams: teams, settings: settings, log: log}
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/teams", s.handleTeams).Methods(http.MethodGet)
	r.HandleFunc("/teams/{name}", s.handleTeam).Methods(http.MethodGet)
	r.HandleFunc("/probabilities", s.handleProbabilities).Methods(http.MethodGet)
	r.HandleFunc("/simulations/season", s.handleSeason).Methods(http.MethodPost)
	r.HandleFunc("/simulations/seasons", s.handleSeasons).Methods(http.MethodPost)
	r.HandleFunc("/simulations/tie", s.handleTie).Methods(http.MethodPost)
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request served")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, league.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	default:
		s.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// Competition picks the teams a simulation runs on: either explicit names,
// or the strongest Limit teams of Country.
type Competition struct {
	Teams   []string `json:"teams,omitempty"`
	Country string   `json:"country,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// ModelOverrides replace the server's model constants for one request.
type ModelOverrides struct {
	Seed          int64    `json:"seed,omitempty"`
	DrawFactor    *float64 `json:"draw_factor,omitempty"`
	HomeAdvantage *float64 `json:"home_advantage,omitempty"`
}

type SeasonRequest struct {
	Competition
	ModelOverrides
}

type SeasonsRequest struct {
	Competition
	ModelOverrides
	Simulations int `json:"simulations,omitempty"`
}

type TieRequest struct {
	ModelOverrides
	Team1       string `json:"team1"`
	Team2       string `json:"team2"`
	Simulations int    `json:"simulations,omitempty"`
}

type SeasonResponse struct {
	RunID     string           `json:"run_id"`
	Seed      int64            `json:"seed"`
	Standings league.Standings `json:"standings"`
}

type SeasonsResponse struct {
	RunID       string                `json:"run_id"`
	Seed        int64                 `json:"seed"`
	Simulations int                   `json:"simulations"`
	Rows        []league.AggregateRow `json:"rows"`
}

type TieResponse struct {
	RunID        string           `json:"run_id"`
	Seed         int64            `json:"seed"`
	Result       league.TieResult `json:"result"`
	Team1Pct     float64          `json:"team1_pct"`
	Team2Pct     float64          `json:"team2_pct"`
	PenaltiesPct float64          `json:"penalties_pct"`
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decoding request body: %v", league.ErrInvalidInput, err)
	}
	return nil
}

// simulator builds a fresh simulator for one request so concurrent requests
// never share a random source.
func (s *Server) simulator(o ModelOverrides) (*league.Simulator, int64, error) {
	model := s.settings.Model
	if o.DrawFactor != nil {
		model.DrawFactor = *o.DrawFactor
	}
	if o.HomeAdvantage != nil {
		model.HomeAdvantage = *o.HomeAdvantage
	}
	if err := model.Validate(); err != nil {
		return nil, 0, err
	}
	seed := o.Seed
	if seed == 0 {
		seed = s.settings.Seed
	}
	rng, seed, err := random.New(seed)
	if err != nil {
		return nil, 0, err
	}
	return league.NewSimulator(model, rng, s.log), seed, nil
}

func (s *Server) competition(ctx context.Context, c Competition) ([]league.Team, error) {
	if len(c.Teams) > 0 {
		teams, err := s.teams.TeamsByName(ctx, c.Teams)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", league.ErrUnknownTeam, err)
		}
		return teams, err
	}
	if c.Country == "" {
		return nil, fmt.Errorf("%w: either teams or country is required", league.ErrInvalidInput)
	}
	if c.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", league.ErrInvalidInput)
	}
	return s.teams.Teams(ctx, store.Filter{Country: c.Country, Limit: c.Limit})
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	f := store.Filter{Country: r.URL.Query().Get("country")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Errorf("%w: limit must be a non-negative integer", league.ErrInvalidInput))
			return
		}
		f.Limit = n
	}
	teams, err := s.teams.Teams(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.teams.Team(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleProbabilities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	neutral := false
	if v := q.Get("neutral"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: neutral must be a boolean", league.ErrInvalidInput))
			return
		}
		neutral = b
	}
	teams, err := s.competition(r.Context(), Competition{Teams: []string{q.Get("home"), q.Get("away")}})
	if err != nil {
		s.writeError(w, err)
		return
	}
	p := s.settings.Model.Probabilities(teams[0].Rating, teams[1].Rating, !neutral)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	var req SeasonRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	teams, err := s.competition(r.Context(), req.Competition)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sim, seed, err := s.simulator(req.ModelOverrides)
	if err != nil {
		s.writeError(w, err)
		return
	}
	table, err := sim.SimulateSeason(teams)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SeasonResponse{RunID: uuid.NewString(), Seed: seed, Standings: table})
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	var req SeasonsRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	n, err := trials(req.Simulations, s.settings.SeasonSimulations, MaxSeasonSimulations)
	if err != nil {
		s.writeError(w, err)
		return
	}
	teams, err := s.competition(r.Context(), req.Competition)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sim, seed, err := s.simulator(req.ModelOverrides)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rows, err := sim.SimulateSeasonsContext(r.Context(), teams, n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SeasonsResponse{RunID: uuid.NewString(), Seed: seed, Simulations: n, Rows: rows})
}

func (s *Server) handleTie(w http.ResponseWriter, r *http.Request) {
	var req TieRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	n, err := trials(req.Simulations, s.settings.TieSimulations, MaxTieSimulations)
	if err != nil {
		s.writeError(w, err)
		return
	}
	teams, err := s.competition(r.Context(), Competition{Teams: []string{req.Team1, req.Team2}})
	if err != nil {
		s.writeError(w, err)
		return
	}
	sim, seed, err := s.simulator(req.ModelOverrides)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := sim.SimulateTieContext(r.Context(), teams, req.Team1, req.Team2, n)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TieResponse{
		RunID:        uuid.NewString(),
		Seed:         seed,
		Result:       res,
		Team1Pct:     res.Team1Pct(),
		Team2Pct:     res.Team2Pct(),
		PenaltiesPct: res.PenaltiesPct(),
	})
}
