package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/boardkeep/tabletop-league/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts the demo users, groups and matches into an empty
// database. It is a no-op when any non-deleted user already exists.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM users WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count users for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, u := range memory.SeedUsers() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO users (public_id, name, email, is_active, created_at, updated_at)
VALUES (:public_id, :name, :email, :is_active, :created_at, :updated_at)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":  u.ID,
			"name":       u.Name,
			"email":      u.Email,
			"is_active":  u.Active,
			"created_at": u.CreatedAt,
			"updated_at": u.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed user %s query: %w", u.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	for _, g := range memory.SeedGroups() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO groups (public_id, name, admin_user_id, created_at, updated_at)
VALUES (:public_id, :name, :admin_user_id, :created_at, :updated_at)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":     g.ID,
			"name":          g.Name,
			"admin_user_id": g.AdminUserID,
			"created_at":    g.CreatedAt,
			"updated_at":    g.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed group %s query: %w", g.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed group %s: %w", g.ID, err)
		}

		for _, memberID := range g.MemberIDs {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO group_members (group_public_id, user_id)
VALUES (:group_public_id, :user_id)
ON CONFLICT (group_public_id, user_id) DO NOTHING`, map[string]any{
				"group_public_id": g.ID,
				"user_id":         memberID,
			})
			if err != nil {
				return fmt.Errorf("bind seed member %s/%s query: %w", g.ID, memberID, err)
			}
			sqlQuery = tx.Rebind(sqlQuery)
			if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
				return fmt.Errorf("seed member %s/%s: %w", g.ID, memberID, err)
			}
		}
	}

	for _, m := range memory.SeedMatches() {
		row := matchInsertFromDomain(m)
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO matches (public_id, game_id, group_public_id, scheduled_at, actual_date, status,
	location, notes, winner_user_id, duration_value, duration_unit, created_by, created_at, updated_at)
VALUES (:public_id, :game_id, :group_public_id, :scheduled_at, :actual_date, :status,
	:location, :notes, :winner_user_id, :duration_value, :duration_unit, :created_by, :created_at, :updated_at)
ON CONFLICT (public_id) DO NOTHING`, row)
		if err != nil {
			return fmt.Errorf("bind seed match %s query: %w", m.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed match %s: %w", m.ID, err)
		}

		for seq, p := range m.Players {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO match_players (match_public_id, user_id, confirmed, score, position, points_earned, seq)
VALUES (:match_public_id, :user_id, :confirmed, :score, :position, :points_earned, :seq)
ON CONFLICT (match_public_id, user_id) DO NOTHING`, map[string]any{
				"match_public_id": m.ID,
				"user_id":         p.UserID,
				"confirmed":       p.Confirmed,
				"score":           p.Score,
				"position":        p.Position,
				"points_earned":   p.PointsEarned,
				"seq":             seq,
			})
			if err != nil {
				return fmt.Errorf("bind seed match player %s/%s query: %w", m.ID, p.UserID, err)
			}
			sqlQuery = tx.Rebind(sqlQuery)
			if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
				return fmt.Errorf("seed match player %s/%s: %w", m.ID, p.UserID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap seed: %w", err)
	}
	return nil
}
