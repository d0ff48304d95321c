package match

import (
	"time"
)

type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
	StatusCancelled  Status = "CANCELLED"
)

// Terminal reports whether no lifecycle transition may leave this status.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusFinished, StatusCancelled:
		return true
	default:
		return false
	}
}

// PlayerSlot is one participant's record inside a match roster.
type PlayerSlot struct {
	UserID       string
	Confirmed    bool
	Score        float64
	Position     *int
	PointsEarned int
}

type Duration struct {
	Value int
	Unit  string
}

// Match is a scheduled or completed play session of one game among a
// fixed roster of players.
type Match struct {
	ID          string
	GameID      string
	GroupID     string
	ScheduledAt time.Time
	ActualDate  *time.Time
	Status      Status
	Location    string
	Notes       string
	Players     []PlayerSlot
	WinnerID    string
	Duration    *Duration
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m Match) Slot(userID string) (PlayerSlot, bool) {
	for _, slot := range m.Players {
		if slot.UserID == userID {
			return slot, true
		}
	}
	return PlayerSlot{}, false
}

func (m Match) HasPlayer(userID string) bool {
	_, ok := m.Slot(userID)
	return ok
}
