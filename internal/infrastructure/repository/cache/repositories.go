package cache

import (
	"context"
	"time"

	"github.com/boardkeep/tabletop-league/internal/domain/group"
	basecache "github.com/boardkeep/tabletop-league/internal/platform/cache"
)

// GroupRepository caches group lookups in front of another repository.
// Groups change rarely and are read on almost every request, so a short
// TTL takes most of the load off the database.
type GroupRepository struct {
	next  group.Repository
	cache *basecache.Store[cachedGroupByID]
}

func NewGroupRepository(next group.Repository, ttl time.Duration) *GroupRepository {
	return &GroupRepository{
		next:  next,
		cache: basecache.NewStore[cachedGroupByID](ttl),
	}
}

func (r *GroupRepository) GetByID(ctx context.Context, groupID string) (group.Group, bool, error) {
	cached, err := r.cache.GetOrLoad(ctx, groupByIDKey(groupID), func(ctx context.Context) (cachedGroupByID, error) {
		item, exists, err := r.next.GetByID(ctx, groupID)
		if err != nil {
			return cachedGroupByID{}, err
		}
		return cachedGroupByID{value: cloneGroup(item), exists: exists}, nil
	})
	if err != nil {
		return group.Group{}, false, err
	}
	return cloneGroup(cached.value), cached.exists, nil
}

func (r *GroupRepository) IncrementMatchesPlayed(ctx context.Context, groupID string) error {
	if err := r.next.IncrementMatchesPlayed(ctx, groupID); err != nil {
		return err
	}
	r.cache.Delete(ctx, groupByIDKey(groupID))
	return nil
}

type cachedGroupByID struct {
	value  group.Group
	exists bool
}

func cloneGroup(g group.Group) group.Group {
	out := g
	out.MemberIDs = append([]string(nil), g.MemberIDs...)
	return out
}

func groupByIDKey(groupID string) string {
	return "group:id:" + groupID
}
