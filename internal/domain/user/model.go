package user

import "time"

// Stats are lifetime counters, incremented once per finished match per
// participant. They only ever grow.
type Stats struct {
	TotalMatches int
	TotalWins    int
	TotalPoints  int
}

// StatsDelta is one finished match's contribution to a user's counters.
type StatsDelta struct {
	Matches int
	Wins    int
	Points  int
}

type User struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	Stats     Stats
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID string
	Email  string
}
