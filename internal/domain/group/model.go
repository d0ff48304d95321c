package group

import "time"

// Group is a collection of users who play matches together. Membership
// is managed elsewhere; this service only reads it and bumps the
// aggregate match counter.
type Group struct {
	ID            string
	Name          string
	AdminUserID   string
	MemberIDs     []string
	MatchesPlayed int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (g Group) IsMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (g Group) MemberSet() map[string]struct{} {
	out := make(map[string]struct{}, len(g.MemberIDs))
	for _, id := range g.MemberIDs {
		out[id] = struct{}{}
	}
	return out
}
