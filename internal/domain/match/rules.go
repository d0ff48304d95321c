package match

import (
	"errors"
	"strings"
	"time"
)

const MinPlayers = 2

var (
	ErrTooFewPlayers     = errors.New("match requires at least two distinct players")
	ErrDuplicatePlayer   = errors.New("duplicate player in roster")
	ErrPlayerNotInGroup  = errors.New("player is not a member of the owning group")
	ErrDuplicatePosition = errors.New("finishing positions must be distinct")
	ErrInvalidPosition   = errors.New("finishing position must be a positive integer")
	ErrWinnerNotAPlayer  = errors.New("winner is not on the match roster")
	ErrScheduledInPast   = errors.New("scheduled date is in the past")
	ErrNotInvited        = errors.New("user is not on the match roster")
	ErrAlreadyFinished   = errors.New("match is already finished")
)

type NewMatchParams struct {
	ID          string
	GameID      string
	GroupID     string
	ScheduledAt time.Time
	CreatedBy   string
	PlayerIDs   []string
	Location    string
	Notes       string
}

// New builds a SCHEDULED match from the creator plus the requested
// players. The caller supplies the owning group's member-id set; the
// entity never looks memberships up itself. The creator is always part
// of the roster and starts confirmed, everyone else starts unconfirmed.
func New(p NewMatchParams, groupMembers map[string]struct{}, now time.Time) (Match, error) {
	if p.ScheduledAt.Before(now) {
		return Match{}, ErrScheduledInPast
	}

	roster := make([]string, 0, len(p.PlayerIDs)+1)
	seen := map[string]struct{}{p.CreatedBy: {}}
	roster = append(roster, p.CreatedBy)
	for _, id := range p.PlayerIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if _, member := groupMembers[id]; !member {
			return Match{}, ErrPlayerNotInGroup
		}
		seen[id] = struct{}{}
		roster = append(roster, id)
	}
	if len(roster) < MinPlayers {
		return Match{}, ErrTooFewPlayers
	}

	slots := make([]PlayerSlot, 0, len(roster))
	for _, id := range roster {
		slots = append(slots, PlayerSlot{
			UserID:    id,
			Confirmed: id == p.CreatedBy,
		})
	}

	return Match{
		ID:          p.ID,
		GameID:      p.GameID,
		GroupID:     p.GroupID,
		ScheduledAt: p.ScheduledAt,
		Status:      StatusScheduled,
		Location:    strings.TrimSpace(p.Location),
		Notes:       strings.TrimSpace(p.Notes),
		Players:     slots,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// PlayerResult is one entry of a finish-time result batch.
type PlayerResult struct {
	UserID   string
	Score    *float64
	Position *int
}

// ApplyResults writes scores and positions onto existing slots. Entries
// for unknown users are ignored. The mutation is rejected whole when the
// resulting non-nil positions are not all distinct.
func (m *Match) ApplyResults(results []PlayerResult) error {
	if m.Status == StatusFinished {
		return ErrAlreadyFinished
	}

	updated := make([]PlayerSlot, len(m.Players))
	copy(updated, m.Players)

	for _, res := range results {
		if res.Position != nil && *res.Position < 1 {
			return ErrInvalidPosition
		}
		for i := range updated {
			if updated[i].UserID != res.UserID {
				continue
			}
			if res.Score != nil {
				updated[i].Score = *res.Score
			}
			if res.Position != nil {
				pos := *res.Position
				updated[i].Position = &pos
			}
			break
		}
	}

	taken := make(map[int]struct{}, len(updated))
	for _, slot := range updated {
		if slot.Position == nil {
			continue
		}
		if _, dup := taken[*slot.Position]; dup {
			return ErrDuplicatePosition
		}
		taken[*slot.Position] = struct{}{}
	}

	m.Players = updated
	return nil
}

func (m *Match) SetWinner(userID string) error {
	if m.Status == StatusFinished {
		return ErrAlreadyFinished
	}
	if !m.HasPlayer(userID) {
		return ErrWinnerNotAPlayer
	}
	m.WinnerID = userID
	return nil
}

// Reschedule moves the match and resets every confirmation except the
// editor's own slot, so remaining players re-confirm the new date.
func (m *Match) Reschedule(editorID string, newDate, now time.Time) error {
	if m.Status == StatusFinished {
		return ErrAlreadyFinished
	}
	if newDate.Before(now) {
		return ErrScheduledInPast
	}
	m.ScheduledAt = newDate
	for i := range m.Players {
		if m.Players[i].UserID == editorID {
			continue
		}
		m.Players[i].Confirmed = false
	}
	return nil
}

func (m *Match) Confirm(userID string) error {
	for i := range m.Players {
		if m.Players[i].UserID == userID {
			m.Players[i].Confirmed = true
			return nil
		}
	}
	return ErrNotInvited
}

func (m *Match) Unconfirm(userID string) error {
	for i := range m.Players {
		if m.Players[i].UserID == userID {
			m.Players[i].Confirmed = false
			return nil
		}
	}
	return ErrNotInvited
}

// RemovePlayer drops a slot from the roster and reports how many
// players remain. The caller decides whether the match survives.
func (m *Match) RemovePlayer(userID string) (int, error) {
	idx := -1
	for i := range m.Players {
		if m.Players[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(m.Players), ErrNotInvited
	}
	m.Players = append(m.Players[:idx], m.Players[idx+1:]...)
	return len(m.Players), nil
}

// Finish transitions the match to FINISHED, stamps the actual date and
// awards per-slot points from the finishing positions.
func (m *Match) Finish(now time.Time) error {
	if m.Status == StatusFinished {
		return ErrAlreadyFinished
	}
	for i := range m.Players {
		m.Players[i].PointsEarned = PointsFor(m.Players[i].Position)
	}
	m.Status = StatusFinished
	actual := now
	m.ActualDate = &actual
	m.UpdatedAt = now
	return nil
}

// Validate checks the structural invariants that must hold after every
// successful mutation.
func (m Match) Validate() error {
	if len(m.Players) < MinPlayers {
		return ErrTooFewPlayers
	}
	seen := make(map[string]struct{}, len(m.Players))
	taken := make(map[int]struct{}, len(m.Players))
	for _, slot := range m.Players {
		if _, dup := seen[slot.UserID]; dup {
			return ErrDuplicatePlayer
		}
		seen[slot.UserID] = struct{}{}
		if slot.Position != nil {
			if *slot.Position < 1 {
				return ErrInvalidPosition
			}
			if _, dup := taken[*slot.Position]; dup {
				return ErrDuplicatePosition
			}
			taken[*slot.Position] = struct{}{}
		}
	}
	if m.WinnerID != "" {
		if _, ok := seen[m.WinnerID]; !ok {
			return ErrWinnerNotAPlayer
		}
	}
	if _, ok := seen[m.CreatedBy]; !ok {
		return ErrNotInvited
	}
	return nil
}
