package postgres

import (
	"database/sql"
	"time"

	"github.com/boardkeep/tabletop-league/internal/domain/match"
)

type matchTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	GameID        string         `db:"game_id"`
	GroupID       string         `db:"group_public_id"`
	ScheduledAt   time.Time      `db:"scheduled_at"`
	ActualDate    *time.Time     `db:"actual_date"`
	Status        string         `db:"status"`
	Location      sql.NullString `db:"location"`
	Notes         sql.NullString `db:"notes"`
	WinnerUserID  sql.NullString `db:"winner_user_id"`
	DurationValue sql.NullInt64  `db:"duration_value"`
	DurationUnit  sql.NullString `db:"duration_unit"`
	CreatedBy     string         `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	DeletedAt     *time.Time     `db:"deleted_at"`
}

type matchPlayerTableModel struct {
	ID           int64           `db:"id"`
	MatchID      string          `db:"match_public_id"`
	UserID       string          `db:"user_id"`
	Confirmed    bool            `db:"confirmed"`
	Score        sql.NullFloat64 `db:"score"`
	Position     sql.NullInt64   `db:"position"`
	PointsEarned int             `db:"points_earned"`
	Seq          int             `db:"seq"`
}

type matchInsertModel struct {
	PublicID      string         `db:"public_id"`
	GameID        string         `db:"game_id"`
	GroupID       string         `db:"group_public_id"`
	ScheduledAt   time.Time      `db:"scheduled_at"`
	ActualDate    *time.Time     `db:"actual_date"`
	Status        string         `db:"status"`
	Location      sql.NullString `db:"location"`
	Notes         sql.NullString `db:"notes"`
	WinnerUserID  sql.NullString `db:"winner_user_id"`
	DurationValue sql.NullInt64  `db:"duration_value"`
	DurationUnit  sql.NullString `db:"duration_unit"`
	CreatedBy     string         `db:"created_by"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func matchInsertFromDomain(m match.Match) matchInsertModel {
	out := matchInsertModel{
		PublicID:     m.ID,
		GameID:       m.GameID,
		GroupID:      m.GroupID,
		ScheduledAt:  m.ScheduledAt,
		ActualDate:   m.ActualDate,
		Status:       string(m.Status),
		Location:     nullString(m.Location),
		Notes:        nullString(m.Notes),
		WinnerUserID: nullString(m.WinnerID),
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Duration != nil {
		out.DurationValue = sql.NullInt64{Int64: int64(m.Duration.Value), Valid: true}
		out.DurationUnit = nullString(m.Duration.Unit)
	}
	return out
}

func matchFromRow(row matchTableModel, players []matchPlayerTableModel) match.Match {
	out := match.Match{
		ID:          row.PublicID,
		GameID:      row.GameID,
		GroupID:     row.GroupID,
		ScheduledAt: row.ScheduledAt,
		ActualDate:  row.ActualDate,
		Status:      match.Status(row.Status),
		Location:    row.Location.String,
		Notes:       row.Notes.String,
		WinnerID:    row.WinnerUserID.String,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.DurationValue.Valid {
		out.Duration = &match.Duration{
			Value: int(row.DurationValue.Int64),
			Unit:  row.DurationUnit.String,
		}
	}

	out.Players = make([]match.PlayerSlot, 0, len(players))
	for _, p := range players {
		slot := match.PlayerSlot{
			UserID:       p.UserID,
			Confirmed:    p.Confirmed,
			Score:        p.Score.Float64,
			PointsEarned: p.PointsEarned,
		}
		if p.Position.Valid {
			pos := int(p.Position.Int64)
			slot.Position = &pos
		}
		out.Players = append(out.Players, slot)
	}
	return out
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullPosition(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
