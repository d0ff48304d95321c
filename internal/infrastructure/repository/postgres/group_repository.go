package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/boardkeep/tabletop-league/internal/domain/group"
	qb "github.com/boardkeep/tabletop-league/internal/platform/querybuilder"
)

type groupTableModel struct {
	ID            int64      `db:"id"`
	PublicID      string     `db:"public_id"`
	Name          string     `db:"name"`
	AdminUserID   string     `db:"admin_user_id"`
	MatchesPlayed int        `db:"matches_played"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

type GroupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) GetByID(ctx context.Context, groupID string) (group.Group, bool, error) {
	query, args, err := getGroupQuery(groupID)
	if err != nil {
		return group.Group{}, false, fmt.Errorf("build get group by id query: %w", err)
	}

	var row groupTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return group.Group{}, false, nil
		}
		return group.Group{}, false, fmt.Errorf("get group by id: %w", err)
	}

	memberQuery, memberArgs, err := listGroupMembersQuery(groupID)
	if err != nil {
		return group.Group{}, false, fmt.Errorf("build list group members query: %w", err)
	}

	var memberIDs []string
	if err := r.db.SelectContext(ctx, &memberIDs, memberQuery, memberArgs...); err != nil {
		return group.Group{}, false, fmt.Errorf("list group members: %w", err)
	}

	return group.Group{
		ID:            row.PublicID,
		Name:          row.Name,
		AdminUserID:   row.AdminUserID,
		MemberIDs:     memberIDs,
		MatchesPlayed: row.MatchesPlayed,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, true, nil
}

func (r *GroupRepository) IncrementMatchesPlayed(ctx context.Context, groupID string) error {
	query, args, err := incrementGroupMatchesQuery(groupID)
	if err != nil {
		return fmt.Errorf("build increment group matches query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("increment group matches: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected increment group matches: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("increment group matches: not found")
	}
	return nil
}

func getGroupQuery(groupID string) (string, []any, error) {
	return qb.Select("*").From("groups").
		Where(
			qb.Eq("public_id", groupID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
}

// group_members rows are removed outright, there is no soft delete on
// the membership table.
func listGroupMembersQuery(groupID string) (string, []any, error) {
	return qb.Select("user_id").From("group_members").
		Where(qb.Eq("group_public_id", groupID)).
		OrderBy("id ASC").
		ToSQL()
}

func incrementGroupMatchesQuery(groupID string) (string, []any, error) {
	return qb.Update("groups").
		SetExpr("matches_played", "matches_played + 1").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", groupID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
}
