package league

// GenerateFixtures returns a double round-robin for the given teams. Every
// pair i<j (in input order) meets once with i hosting in the first half and
// once with j hosting in the second half. Second-half fixtures carry
// VenueAway and are played without home advantage.
//
// Fewer than two teams yields an empty schedule.
func GenerateFixtures(teams []string) []Fixture {
	n := len(teams)
	if n < 2 {
		return []Fixture{}
	}
	pairs := n * (n - 1) / 2
	firstHalf := make([]Fixture, 0, pairs)
	secondHalf := make([]Fixture, 0, pairs)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			firstHalf = append(firstHalf, Fixture{Home: teams[i], Away: teams[j], Venue: VenueHome})
			secondHalf = append(secondHalf, Fixture{Home: teams[j], Away: teams[i], Venue: VenueAway})
		}
	}
	return append(firstHalf, secondHalf...)
}

// Names returns the team names in input order.
func Names(teams []Team) []string {
	names := make([]string, len(teams))
	for i, t := range teams {
		names[i] = t.Name
	}
	return names
}
