package user

import "context"

type Repository interface {
	// ListActive returns active users in storage order. Ranking relies
	// on that order being stable across calls for tie breaking.
	ListActive(ctx context.Context) ([]User, error)
	ListByIDs(ctx context.Context, userIDs []string) ([]User, error)

	// IncrementStats applies the delta with atomic arithmetic updates
	// and returns the counters after the increment. The boolean is
	// false when the user does not exist.
	IncrementStats(ctx context.Context, userID string, delta StatsDelta) (Stats, bool, error)
}
