package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/boardkeep/tabletop-league/internal/domain/match"
	qb "github.com/boardkeep/tabletop-league/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.InsertModel("matches", matchInsertFromDomain(m), "")
	if err != nil {
		return fmt.Errorf("build create match query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	if err := insertPlayers(ctx, tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create match tx: %w", err)
	}
	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := getMatchQuery(matchID)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}

	players, err := r.listPlayers(ctx, matchID)
	if err != nil {
		return match.Match{}, false, err
	}
	return matchFromRow(row, players), true, nil
}

func (r *MatchRepository) Update(ctx context.Context, m match.Match) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx update match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := updateMatchQuery(m)
	if err != nil {
		return fmt.Errorf("build update match query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update match: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update match: not found")
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM match_players WHERE match_public_id = $1", m.ID); err != nil {
		return fmt.Errorf("clear match players: %w", err)
	}
	if err := insertPlayers(ctx, tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update match tx: %w", err)
	}
	return nil
}

func (r *MatchRepository) Delete(ctx context.Context, matchID string) error {
	query, args, err := softDeleteMatchQuery(matchID)
	if err != nil {
		return fmt.Errorf("build delete match query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected delete match: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("delete match: not found")
	}
	return nil
}

func (r *MatchRepository) ListByGroup(ctx context.Context, groupID string) ([]match.Match, error) {
	query, args, err := listMatchesByGroupQuery(groupID)
	if err != nil {
		return nil, fmt.Errorf("build list matches by group query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches by group: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		players, err := r.listPlayers(ctx, row.PublicID)
		if err != nil {
			return nil, err
		}
		out = append(out, matchFromRow(row, players))
	}
	return out, nil
}

// FinishIfPending moves the match to FINISHED only when no other caller
// has already done so. The guard lives inside the UPDATE statement, so
// exactly one of any number of concurrent callers observes true.
func (r *MatchRepository) FinishIfPending(ctx context.Context, m match.Match) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx finish match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := finishMatchQuery(m)
	if err != nil {
		return false, fmt.Errorf("build finish match query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("finish match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected finish match: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	for _, p := range m.Players {
		playerQuery, playerArgs, err := finishMatchPlayerQuery(m.ID, p)
		if err != nil {
			return false, fmt.Errorf("build finish match player query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, playerQuery, playerArgs...); err != nil {
			return false, fmt.Errorf("finish match player %s: %w", p.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit finish match tx: %w", err)
	}
	return true, nil
}

func (r *MatchRepository) listPlayers(ctx context.Context, matchID string) ([]matchPlayerTableModel, error) {
	query, args, err := listMatchPlayersQuery(matchID)
	if err != nil {
		return nil, fmt.Errorf("build list match players query: %w", err)
	}

	var rows []matchPlayerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list match players: %w", err)
	}
	return rows, nil
}

func insertPlayers(ctx context.Context, tx *sqlx.Tx, m match.Match) error {
	if len(m.Players) == 0 {
		return nil
	}

	query, args, err := insertMatchPlayersQuery(m)
	if err != nil {
		return fmt.Errorf("build insert match players query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match players: %w", err)
	}
	return nil
}

func getMatchQuery(matchID string) (string, []any, error) {
	return qb.Select("*").From("matches").
		Where(
			qb.Eq("public_id", matchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
}

func updateMatchQuery(m match.Match) (string, []any, error) {
	return qb.Update("matches").
		Set("scheduled_at", m.ScheduledAt).
		Set("actual_date", m.ActualDate).
		Set("status", string(m.Status)).
		Set("location", nullString(m.Location)).
		Set("notes", nullString(m.Notes)).
		Set("winner_user_id", nullString(m.WinnerID)).
		Set("duration_value", durationValue(m)).
		Set("duration_unit", durationUnit(m)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", m.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
}

func softDeleteMatchQuery(matchID string) (string, []any, error) {
	return qb.Update("matches").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("public_id", matchID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
}

func listMatchesByGroupQuery(groupID string) (string, []any, error) {
	return qb.Select("*").From("matches").
		Where(
			qb.Eq("group_public_id", groupID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("scheduled_at ASC", "id ASC").
		ToSQL()
}

func finishMatchQuery(m match.Match) (string, []any, error) {
	return qb.Update("matches").
		Set("status", string(match.StatusFinished)).
		Set("actual_date", m.ActualDate).
		Set("notes", nullString(m.Notes)).
		Set("winner_user_id", nullString(m.WinnerID)).
		Set("duration_value", durationValue(m)).
		Set("duration_unit", durationUnit(m)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", m.ID),
			qb.Expr("status <> ?", string(match.StatusFinished)),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
}

func finishMatchPlayerQuery(matchID string, p match.PlayerSlot) (string, []any, error) {
	return qb.Update("match_players").
		Set("confirmed", p.Confirmed).
		Set("score", p.Score).
		Set("position", nullPosition(p.Position)).
		Set("points_earned", p.PointsEarned).
		Where(
			qb.Eq("match_public_id", matchID),
			qb.Eq("user_id", p.UserID),
		).
		ToSQL()
}

func listMatchPlayersQuery(matchID string) (string, []any, error) {
	return qb.Select("*").From("match_players").
		Where(qb.Eq("match_public_id", matchID)).
		OrderBy("seq ASC").
		ToSQL()
}

func insertMatchPlayersQuery(m match.Match) (string, []any, error) {
	builder := qb.InsertInto("match_players").
		Columns("match_public_id", "user_id", "confirmed", "score", "position", "points_earned", "seq")
	for i, p := range m.Players {
		builder.Values(m.ID, p.UserID, p.Confirmed, p.Score, nullPosition(p.Position), p.PointsEarned, i)
	}
	return builder.ToSQL()
}

func durationValue(m match.Match) any {
	if m.Duration == nil {
		return nil
	}
	return m.Duration.Value
}

func durationUnit(m match.Match) any {
	if m.Duration == nil {
		return nil
	}
	return m.Duration.Unit
}
