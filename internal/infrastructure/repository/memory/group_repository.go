package memory

import (
	"context"
	"sync"

	"github.com/boardkeep/tabletop-league/internal/domain/group"
)

type GroupRepository struct {
	mu     sync.RWMutex
	items  map[string]group.Group
	orders []string
}

func NewGroupRepository(groups []group.Group) *GroupRepository {
	items := make(map[string]group.Group, len(groups))
	orders := make([]string, 0, len(groups))

	for _, g := range groups {
		items[g.ID] = cloneGroup(g)
		orders = append(orders, g.ID)
	}

	return &GroupRepository{
		items:  items,
		orders: orders,
	}
}

func (r *GroupRepository) GetByID(_ context.Context, groupID string) (group.Group, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.items[groupID]
	if !ok {
		return group.Group{}, false, nil
	}
	return cloneGroup(g), true, nil
}

func (r *GroupRepository) IncrementMatchesPlayed(_ context.Context, groupID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.items[groupID]
	if !ok {
		return errNotFound("group", groupID)
	}
	g.MatchesPlayed++
	r.items[groupID] = g
	return nil
}

func cloneGroup(g group.Group) group.Group {
	out := g
	out.MemberIDs = make([]string, len(g.MemberIDs))
	copy(out.MemberIDs, g.MemberIDs)
	return out
}
