package match

import "context"

// Repository persists matches. GetByID reports absence through the
// boolean rather than an error.
type Repository interface {
	Create(ctx context.Context, m Match) error
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	Update(ctx context.Context, m Match) error
	Delete(ctx context.Context, matchID string) error
	ListByGroup(ctx context.Context, groupID string) ([]Match, error)

	// FinishIfPending persists the finished match only when the stored
	// status is not yet FINISHED. It returns false when another caller
	// won the transition, so points are never awarded twice.
	FinishIfPending(ctx context.Context, m Match) (bool, error)
}
