// Package ratings reads club rating exports such as the clubelo.com
// rankings CSV.
package ratings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/utakatalp/league-montecarlo/internal/league"
)

// Column headers looked up in the first row. Matching ignores case.
const (
	ColumnClub    = "club"
	ColumnCountry = "country"
	ColumnRating  = "elo"
)

// ParseCSV reads teams from a ratings export. The export may list the same
// clubs again further down; only the first row for each club is kept.
func ParseCSV(r io.Reader) ([]league.Team, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("ratings csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	club, ok := cols[ColumnClub]
	if !ok {
		return nil, fmt.Errorf("ratings csv has no %q column", ColumnClub)
	}
	rating, ok := cols[ColumnRating]
	if !ok {
		return nil, fmt.Errorf("ratings csv has no %q column", ColumnRating)
	}
	country, hasCountry := cols[ColumnCountry]

	seen := make(map[string]bool)
	var teams []league.Team
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) <= club || len(rec) <= rating {
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, max(club, rating)+1, len(rec))
		}
		name := strings.TrimSpace(rec[club])
		if name == "" {
			return nil, fmt.Errorf("line %d: empty club name", line)
		}
		if seen[name] {
			continue
		}
		elo, err := strconv.ParseFloat(strings.TrimSpace(rec[rating]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: rating for %s: %w", line, name, err)
		}
		t := league.Team{Name: name, Rating: elo}
		if hasCountry && country < len(rec) {
			t.Country = strings.TrimSpace(rec[country])
		}
		seen[name] = true
		teams = append(teams, t)
	}
	return teams, nil
}
