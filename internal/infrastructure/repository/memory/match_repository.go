package memory

import (
	"context"
	"sync"

	"github.com/boardkeep/tabletop-league/internal/domain/match"
)

type MatchRepository struct {
	mu     sync.RWMutex
	items  map[string]match.Match
	orders []string
}

func NewMatchRepository(matches []match.Match) *MatchRepository {
	items := make(map[string]match.Match, len(matches))
	orders := make([]string, 0, len(matches))

	for _, m := range matches {
		items[m.ID] = cloneMatch(m)
		orders = append(orders, m.ID)
	}

	return &MatchRepository{
		items:  items,
		orders: orders,
	}
}

func (r *MatchRepository) Create(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[m.ID]; !ok {
		r.orders = append(r.orders, m.ID)
	}
	r.items[m.ID] = cloneMatch(m)
	return nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return cloneMatch(m), true, nil
}

func (r *MatchRepository) Update(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[m.ID]; !ok {
		return errNotFound("match", m.ID)
	}
	r.items[m.ID] = cloneMatch(m)
	return nil
}

func (r *MatchRepository) Delete(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[matchID]; !ok {
		return errNotFound("match", matchID)
	}
	delete(r.items, matchID)
	for i, id := range r.orders {
		if id == matchID {
			r.orders = append(r.orders[:i], r.orders[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MatchRepository) ListByGroup(_ context.Context, groupID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []match.Match
	for _, id := range r.orders {
		if m, ok := r.items[id]; ok && m.GroupID == groupID {
			out = append(out, cloneMatch(m))
		}
	}
	return out, nil
}

// FinishIfPending stores the finished match only when the current copy
// has not been finished yet, mirroring the conditional update the SQL
// implementation does in one statement.
func (r *MatchRepository) FinishIfPending(_ context.Context, m match.Match) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[m.ID]
	if !ok {
		return false, errNotFound("match", m.ID)
	}
	if current.Status == match.StatusFinished {
		return false, nil
	}
	r.items[m.ID] = cloneMatch(m)
	return true, nil
}

func cloneMatch(m match.Match) match.Match {
	out := m
	out.Players = make([]match.PlayerSlot, len(m.Players))
	copy(out.Players, m.Players)
	for i, p := range m.Players {
		if p.Position != nil {
			pos := *p.Position
			out.Players[i].Position = &pos
		}
	}
	if m.ActualDate != nil {
		d := *m.ActualDate
		out.ActualDate = &d
	}
	if m.Duration != nil {
		d := *m.Duration
		out.Duration = &d
	}
	return out
}
