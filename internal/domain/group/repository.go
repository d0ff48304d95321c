package group

import "context"

type Repository interface {
	GetByID(ctx context.Context, groupID string) (Group, bool, error)

	// IncrementMatchesPlayed adds exactly one to the group's aggregate
	// match counter with an arithmetic update at the storage layer.
	IncrementMatchesPlayed(ctx context.Context, groupID string) error
}
