package postgres

import (
	"time"

	"github.com/boardkeep/tabletop-league/internal/domain/user"
)

type userTableModel struct {
	ID           int64      `db:"id"`
	PublicID     string     `db:"public_id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	IsActive     bool       `db:"is_active"`
	TotalMatches int        `db:"total_matches"`
	TotalWins    int        `db:"total_wins"`
	TotalPoints  int        `db:"total_points"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func userFromRow(row userTableModel) user.User {
	return user.User{
		ID:     row.PublicID,
		Name:   row.Name,
		Email:  row.Email,
		Active: row.IsActive,
		Stats: user.Stats{
			TotalMatches: row.TotalMatches,
			TotalWins:    row.TotalWins,
			TotalPoints:  row.TotalPoints,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
