package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/league-montecarlo/internal/league"
	"github.com/utakatalp/league-montecarlo/internal/store"
)

type fakeSource struct {
	teams []league.Team
}

func (f fakeSource) Teams(_ context.Context, flt store.Filter) ([]league.Team, error) {
	out := []league.Team{}
	for _, t := range f.teams {
		if flt.Country != "" && t.Country != flt.Country {
			continue
		}
		out = append(out, t)
		if flt.Limit > 0 && len(out) == flt.Limit {
			break
		}
	}
	return out, nil
}

func (f fakeSource) Team(_ context.Context, name string) (league.Team, error) {
	for _, t := range f.teams {
		if t.Name == name {
			return t, nil
		}
	}
	return league.Team{}, fmt.Errorf("%w: %s", store.ErrNotFound, name)
}

func (f fakeSource) TeamsByName(ctx context.Context, names []string) ([]league.Team, error) {
	var out []league.Team
	for _, n := range names {
		t, err := f.Team(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func newTestServer() *httptest.Server {
	src := fakeSource{teams: []league.Team{
		{Name: "Arsenal", Country: "ENG", Rating: 2050},
		{Name: "Chelsea", Country: "ENG", Rating: 1950},
		{Name: "Everton", Country: "ENG", Rating: 1700},
		{Name: "Legia", Country: "POL", Rating: 1620},
	}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	srv := NewServer(src, Settings{
		Model:             league.DefaultModel(),
		TieSimulations:    500,
		SeasonSimulations: 10,
		Seed:              7,
	}, log)
	return httptest.NewServer(srv.Router())
}

func post(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func TestSeasonEndpoint(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	var resp SeasonResponse
	if code := post(t, ts.URL+"/simulations/season", `{"country":"ENG"}`, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.RunID == "" || resp.Seed != 7 {
		t.Fatalf("unexpected run metadata %+v", resp)
	}
	if len(resp.Standings.Rows) != 3 || resp.Standings.Matches != 6 {
		t.Fatalf("unexpected standings %+v", resp.Standings)
	}
}

func TestSeasonEndpointIsReproducible(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	var a, b SeasonResponse
	post(t, ts.URL+"/simulations/season", `{"teams":["Arsenal","Legia","Everton"],"seed":99}`, &a)
	post(t, ts.URL+"/simulations/season", `{"teams":["Arsenal","Legia","Everton"],"seed":99}`, &b)
	for i := range a.Standings.Rows {
		if a.Standings.Rows[i] != b.Standings.Rows[i] {
			t.Fatalf("same seed gave different tables")
		}
	}
	if a.RunID == b.RunID {
		t.Fatal("run ids should be unique")
	}
}

func TestSeasonsEndpoint(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	var resp SeasonsResponse
	if code := post(t, ts.URL+"/simulations/seasons", `{"country":"ENG","limit":2,"simulations":25}`, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.Simulations != 25 || len(resp.Rows) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}

	if code := post(t, ts.URL+"/simulations/seasons", `{"country":"ENG"}`, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if resp.Simulations != 10 {
		t.Fatalf("default simulations = %d, want 10", resp.Simulations)
	}
}

func TestTieEndpoint(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	var resp TieResponse
	if code := post(t, ts.URL+"/simulations/tie", `{"team1":"Legia","team2":"Chelsea"}`, &resp); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	r := resp.Result
	if r.Simulations != 500 || r.Team1Advances+r.Team2Advances != 500 {
		t.Fatalf("unexpected tie result %+v", r)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown tie team", "/simulations/tie", `{"team1":"Legia","team2":"Nobody"}`, http.StatusBadRequest},
		{"same tie team", "/simulations/tie", `{"team1":"Legia","team2":"Legia"}`, http.StatusBadRequest},
		{"no competition", "/simulations/season", `{}`, http.StatusBadRequest},
		{"bad json", "/simulations/season", `{"country":`, http.StatusBadRequest},
		{"unknown field", "/simulations/season", `{"league":"ENG"}`, http.StatusBadRequest},
		{"negative draw factor", "/simulations/season", `{"country":"ENG","draw_factor":-1}`, http.StatusBadRequest},
		{"negative seasons", "/simulations/seasons", `{"country":"ENG","simulations":-3}`, http.StatusBadRequest},
		{"oversized seasons", "/simulations/seasons", `{"country":"ENG","simulations":4611686018427387904}`, http.StatusBadRequest},
		{"seasons above cap", "/simulations/seasons", `{"country":"ENG","simulations":100001}`, http.StatusBadRequest},
		{"ties above cap", "/simulations/tie", `{"team1":"Legia","team2":"Chelsea","simulations":10000001}`, http.StatusBadRequest},
		{"zero home advantage", "/simulations/tie", `{"team1":"Legia","team2":"Chelsea","home_advantage":0}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := post(t, ts.URL+tt.path, tt.body, nil); code != tt.want {
				t.Fatalf("status %d, want %d", code, tt.want)
			}
		})
	}
}

func TestTeamsEndpoints(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	var teams []league.Team
	if code := get(t, ts.URL+"/teams?country=ENG&limit=2", &teams); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if len(teams) != 2 || teams[0].Name != "Arsenal" {
		t.Fatalf("unexpected teams %+v", teams)
	}

	var team league.Team
	if code := get(t, ts.URL+"/teams/Legia", &team); code != http.StatusOK || team.Country != "POL" {
		t.Fatalf("status %d, team %+v", code, team)
	}
	if code := get(t, ts.URL+"/teams/Nobody", nil); code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", code)
	}
	if code := get(t, ts.URL+"/teams?limit=x", nil); code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", code)
	}
}

func TestProbabilitiesEndpoint(t *testing.T) {
	ts := newTestServer()
	defer ts.Close()

	var home, neutral league.Probabilities
	if code := get(t, ts.URL+"/probabilities?home=Chelsea&away=Arsenal", &home); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if code := get(t, ts.URL+"/probabilities?home=Chelsea&away=Arsenal&neutral=true", &neutral); code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if home.HomeWin <= neutral.HomeWin {
		t.Fatalf("home advantage missing: %+v vs %+v", home, neutral)
	}
	if code := get(t, ts.URL+"/probabilities?home=Chelsea&away=Ghost", nil); code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", code)
	}
}
