package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/boardkeep/tabletop-league/internal/domain/user"
)

type UserRepository struct {
	mu     sync.RWMutex
	items  map[string]user.User
	orders []string
}

func NewUserRepository(users []user.User) *UserRepository {
	items := make(map[string]user.User, len(users))
	orders := make([]string, 0, len(users))

	for _, u := range users {
		items[u.ID] = u
		orders = append(orders, u.ID)
	}

	return &UserRepository{
		items:  items,
		orders: orders,
	}
}

func (r *UserRepository) ListActive(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.orders))
	for _, id := range r.orders {
		if u, ok := r.items[id]; ok && u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) ListByIDs(_ context.Context, userIDs []string) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := r.items[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) IncrementStats(_ context.Context, userID string, delta user.StatsDelta) (user.Stats, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[userID]
	if !ok {
		return user.Stats{}, false, nil
	}
	u.Stats.TotalMatches += delta.Matches
	u.Stats.TotalWins += delta.Wins
	u.Stats.TotalPoints += delta.Points
	r.items[userID] = u
	return u.Stats, true, nil
}

func errNotFound(kind, id string) error {
	return fmt.Errorf("%s %s not found", kind, id)
}
