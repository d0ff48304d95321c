package ranking

import "github.com/boardkeep/tabletop-league/internal/domain/user"

// Entry is one computed row of a points ranking. Positions are
// 1-indexed; ties keep the storage order of the underlying users.
type Entry struct {
	Position     int
	UserID       string
	Name         string
	TotalPoints  int
	TotalMatches int
	TotalWins    int
	WinRate      float64
}

// PlayerUpdate records one successful per-player statistics increment
// performed while applying a finished match.
type PlayerUpdate struct {
	UserID     string
	Points     int
	IsWinner   bool
	StatsAfter user.Stats
}

// PlayerFailure records one per-player increment that failed. The rest
// of the batch proceeds regardless.
type PlayerFailure struct {
	UserID string
	Reason string
}

// Report is the outcome of applying a finished match to user
// statistics. Failures are data, not an abort signal.
type Report struct {
	Updated  []PlayerUpdate
	Failures []PlayerFailure
}

func (r Report) Partial() bool {
	return len(r.Failures) > 0
}
