package postgres

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/domain/user"
)

// These tests pin every generated statement against the columns the
// migration actually creates, so a query referencing a column the
// schema lacks fails here instead of at runtime.

func loadSchemaColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "db", "migrations", "0001_init.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	tables := map[string]map[string]bool{}
	var current map[string]bool
	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "CREATE TABLE IF NOT EXISTS "); ok {
			name := strings.TrimSpace(strings.TrimSuffix(rest, "("))
			current = map[string]bool{}
			tables[name] = current
			continue
		}
		if current == nil {
			continue
		}
		if strings.HasPrefix(trimmed, ")") {
			current = nil
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		head := strings.ToUpper(fields[0])
		if head == "UNIQUE" || head == "PRIMARY" || head == "FOREIGN" || head == "CHECK" || head == "CONSTRAINT" {
			continue
		}
		current[fields[0]] = true
	}

	if len(tables) == 0 {
		t.Fatal("no tables parsed from migration")
	}
	return tables
}

var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"is": true, "null": true, "not": true, "in": true, "order": true,
	"by": true, "asc": true, "desc": true, "update": true, "set": true,
	"insert": true, "into": true, "values": true, "returning": true,
	"now": true, "limit": true, "delete": true,
}

// assertQueryAgainstSchema checks every identifier in the query against
// the table's columns from the migration. Keywords, the table name and
// $n placeholders are skipped.
func assertQueryAgainstSchema(t *testing.T, schema map[string]map[string]bool, table, query string) {
	t.Helper()

	columns, ok := schema[table]
	if !ok {
		t.Fatalf("table %s is not defined in the migration", table)
	}

	token := strings.Builder{}
	flush := func() {
		defer token.Reset()
		word := token.String()
		if word == "" {
			return
		}
		if sqlKeywords[strings.ToLower(word)] || word == table {
			return
		}
		if !columns[word] {
			t.Fatalf("query references column %q missing from table %s: %s", word, table, query)
		}
	}
	for _, r := range strings.ToLower(query) {
		if r == '_' || (r >= 'a' && r <= 'z') {
			token.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
}

func TestTableModelsMatchMigration(t *testing.T) {
	schema := loadSchemaColumns(t)

	models := map[string]any{
		"users":         userTableModel{},
		"groups":        groupTableModel{},
		"matches":       matchTableModel{},
		"match_players": matchPlayerTableModel{},
	}
	for table, model := range models {
		typ := reflect.TypeOf(model)
		for i := 0; i < typ.NumField(); i++ {
			tag := typ.Field(i).Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			if !schema[table][tag] {
				t.Fatalf("model for %s maps column %q missing from migration", table, tag)
			}
		}
	}
}

func TestGroupMemberQueryMatchesSchema(t *testing.T) {
	schema := loadSchemaColumns(t)

	query, args, err := listGroupMembersQuery("grp-thursday-night")
	if err != nil {
		t.Fatalf("build list group members query: %v", err)
	}

	wantQuery := "SELECT user_id FROM group_members WHERE group_public_id = $1 ORDER BY id ASC"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "grp-thursday-night" {
		t.Fatalf("unexpected args: %+v", args)
	}
	assertQueryAgainstSchema(t, schema, "group_members", query)
}

func TestGroupQueriesMatchSchema(t *testing.T) {
	schema := loadSchemaColumns(t)

	query, _, err := getGroupQuery("grp-weekend-crew")
	if err != nil {
		t.Fatalf("build get group query: %v", err)
	}
	assertQueryAgainstSchema(t, schema, "groups", query)

	query, args, err := incrementGroupMatchesQuery("grp-weekend-crew")
	if err != nil {
		t.Fatalf("build increment group matches query: %v", err)
	}
	wantQuery := "UPDATE groups SET matches_played = matches_played + 1, updated_at = NOW() WHERE public_id = $1 AND deleted_at IS NULL"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %+v", args)
	}
	assertQueryAgainstSchema(t, schema, "groups", query)
}

func TestUserQueriesMatchSchema(t *testing.T) {
	schema := loadSchemaColumns(t)

	for name, build := range map[string]func() (string, []any, error){
		"list active": listActiveUsersQuery,
		"list by ids": func() (string, []any, error) { return listUsersByIDsQuery([]string{"usr-ayu", "usr-bima"}) },
	} {
		query, _, err := build()
		if err != nil {
			t.Fatalf("build %s query: %v", name, err)
		}
		assertQueryAgainstSchema(t, schema, "users", query)
	}

	query, args, err := incrementUserStatsQuery("usr-ayu", user.StatsDelta{Matches: 1, Wins: 1, Points: 10})
	if err != nil {
		t.Fatalf("build increment user stats query: %v", err)
	}
	wantQuery := "UPDATE users SET total_matches = total_matches + $1, total_wins = total_wins + $2, total_points = total_points + $3, updated_at = NOW() " +
		"WHERE public_id = $4 AND deleted_at IS NULL RETURNING total_matches, total_wins, total_points"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[0] != 1 || args[2] != 10 {
		t.Fatalf("unexpected args: %+v", args)
	}
	assertQueryAgainstSchema(t, schema, "users", query)
}

func TestMatchQueriesMatchSchema(t *testing.T) {
	schema := loadSchemaColumns(t)

	pos := 1
	m := match.Match{
		ID:          "mtc-catan-opening",
		GameID:      "catan",
		GroupID:     "grp-thursday-night",
		ScheduledAt: time.Date(2026, 9, 3, 19, 0, 0, 0, time.UTC),
		Status:      match.StatusScheduled,
		Players: []match.PlayerSlot{
			{UserID: "usr-ayu", Confirmed: true, Position: &pos, PointsEarned: 10},
			{UserID: "usr-bima"},
		},
		CreatedBy: "usr-ayu",
	}

	for name, build := range map[string]func() (string, []any, error){
		"get by id":     func() (string, []any, error) { return getMatchQuery(m.ID) },
		"update":        func() (string, []any, error) { return updateMatchQuery(m) },
		"soft delete":   func() (string, []any, error) { return softDeleteMatchQuery(m.ID) },
		"list by group": func() (string, []any, error) { return listMatchesByGroupQuery(m.GroupID) },
	} {
		query, _, err := build()
		if err != nil {
			t.Fatalf("build %s query: %v", name, err)
		}
		assertQueryAgainstSchema(t, schema, "matches", query)
	}

	for name, build := range map[string]func() (string, []any, error){
		"list players":   func() (string, []any, error) { return listMatchPlayersQuery(m.ID) },
		"insert players": func() (string, []any, error) { return insertMatchPlayersQuery(m) },
		"finish player":  func() (string, []any, error) { return finishMatchPlayerQuery(m.ID, m.Players[0]) },
	} {
		query, _, err := build()
		if err != nil {
			t.Fatalf("build %s query: %v", name, err)
		}
		assertQueryAgainstSchema(t, schema, "match_players", query)
	}
}

func TestFinishMatchQueryGuardsStatus(t *testing.T) {
	schema := loadSchemaColumns(t)

	m := match.Match{ID: "mtc-terraforming", Status: match.StatusFinished, WinnerID: "usr-eka"}
	query, args, err := finishMatchQuery(m)
	if err != nil {
		t.Fatalf("build finish match query: %v", err)
	}

	wantQuery := "UPDATE matches SET status = $1, actual_date = $2, notes = $3, winner_user_id = $4, duration_value = $5, duration_unit = $6, updated_at = NOW() " +
		"WHERE public_id = $7 AND status <> $8 AND deleted_at IS NULL"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if args[0] != string(match.StatusFinished) || args[7] != string(match.StatusFinished) {
		t.Fatalf("finish guard must set and exclude FINISHED: %+v", args)
	}
	assertQueryAgainstSchema(t, schema, "matches", query)
}

func TestMatchInsertModelMatchesMigration(t *testing.T) {
	schema := loadSchemaColumns(t)

	typ := reflect.TypeOf(matchInsertModel{})
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		if !schema["matches"][tag] {
			t.Fatalf("insert model maps column %q missing from matches", tag)
		}
	}
}
