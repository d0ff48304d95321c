package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/boardkeep/tabletop-league/internal/domain/user"
	qb "github.com/boardkeep/tabletop-league/internal/platform/querybuilder"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ListActive(ctx context.Context) ([]user.User, error) {
	query, args, err := listActiveUsersQuery()
	if err != nil {
		return nil, fmt.Errorf("build list active users query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

func (r *UserRepository) ListByIDs(ctx context.Context, userIDs []string) ([]user.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query, args, err := listUsersByIDsQuery(userIDs)
	if err != nil {
		return nil, fmt.Errorf("build list users by ids query: %w", err)
	}

	var rows []userTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list users by ids: %w", err)
	}

	out := make([]user.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, userFromRow(row))
	}
	return out, nil
}

// IncrementStats adds the delta in one statement so concurrent match
// finishes never lose an update.
func (r *UserRepository) IncrementStats(ctx context.Context, userID string, delta user.StatsDelta) (user.Stats, bool, error) {
	query, args, err := incrementUserStatsQuery(userID, delta)
	if err != nil {
		return user.Stats{}, false, fmt.Errorf("build increment user stats query: %w", err)
	}

	var stats user.Stats
	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&stats.TotalMatches, &stats.TotalWins, &stats.TotalPoints); err != nil {
		if isNotFound(err) {
			return user.Stats{}, false, nil
		}
		return user.Stats{}, false, fmt.Errorf("increment user stats: %w", err)
	}
	return stats, true, nil
}

func listActiveUsersQuery() (string, []any, error) {
	return qb.Select("*").From("users").
		Where(
			qb.Eq("is_active", true),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
}

func listUsersByIDsQuery(userIDs []string) (string, []any, error) {
	ids := make([]any, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, id)
	}
	return qb.Select("*").From("users").
		Where(
			qb.In("public_id", ids),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
}

func incrementUserStatsQuery(userID string, delta user.StatsDelta) (string, []any, error) {
	return qb.Update("users").
		SetExpr("total_matches", "total_matches + ?", delta.Matches).
		SetExpr("total_wins", "total_wins + ?", delta.Wins).
		SetExpr("total_points", "total_points + ?", delta.Points).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", userID),
			qb.IsNull("deleted_at"),
		).
		Suffix("RETURNING total_matches, total_wins, total_points").
		ToSQL()
}
