package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boardkeep/tabletop-league/internal/domain/group"
	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/domain/user"
)

func TestRankingService_GlobalRanking_Ordering(t *testing.T) {
	t.Parallel()

	users := &stubUserRepository{
		order: []string{"alice", "bob", "carol"},
		byID: map[string]user.User{
			"alice": {ID: "alice", Name: "Alice", Active: true, Stats: user.Stats{TotalPoints: 30, TotalMatches: 4, TotalWins: 3}},
			"bob":   {ID: "bob", Name: "Bob", Active: true, Stats: user.Stats{TotalPoints: 10, TotalMatches: 5, TotalWins: 0}},
			"carol": {ID: "carol", Name: "Carol", Active: true, Stats: user.Stats{TotalPoints: 20, TotalMatches: 2, TotalWins: 1}},
		},
	}
	service := NewRankingService(users, &stubGroupRepository{}, nil)

	got, err := service.GlobalRanking(context.Background())
	if err != nil {
		t.Fatalf("GlobalRanking error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].UserID != "alice" || got[0].Position != 1 || got[0].TotalPoints != 30 {
		t.Fatalf("unexpected rank 1: %+v", got[0])
	}
	if got[1].UserID != "carol" || got[1].Position != 2 {
		t.Fatalf("unexpected rank 2: %+v", got[1])
	}
	if got[2].UserID != "bob" || got[2].Position != 3 {
		t.Fatalf("unexpected rank 3: %+v", got[2])
	}
	if got[1].WinRate != 0.5 {
		t.Fatalf("unexpected win rate: %v", got[1].WinRate)
	}
	if got[2].WinRate != 0 {
		t.Fatalf("win rate of a winless player must be zero, got %v", got[2].WinRate)
	}
}

func TestRankingService_GlobalRanking_TiesKeepStorageOrder(t *testing.T) {
	t.Parallel()

	users := &stubUserRepository{
		order: []string{"bob", "alice"},
		byID: map[string]user.User{
			"alice": {ID: "alice", Name: "Alice", Active: true, Stats: user.Stats{TotalPoints: 15, TotalMatches: 3}},
			"bob":   {ID: "bob", Name: "Bob", Active: true, Stats: user.Stats{TotalPoints: 15, TotalMatches: 1}},
		},
	}
	service := NewRankingService(users, &stubGroupRepository{}, nil)

	got, err := service.GlobalRanking(context.Background())
	if err != nil {
		t.Fatalf("GlobalRanking error: %v", err)
	}
	if got[0].UserID != "bob" || got[1].UserID != "alice" {
		t.Fatalf("tie order not stable: %+v", got)
	}
}

func TestRankingService_GroupRanking_MembersOnly(t *testing.T) {
	t.Parallel()

	groups := &stubGroupRepository{
		byID: map[string]group.Group{
			"group-1": {ID: "group-1", AdminUserID: "alice", MemberIDs: []string{"alice", "bob"}},
		},
	}
	users := &stubUserRepository{
		byID: map[string]user.User{
			"alice": {ID: "alice", Name: "Alice", Active: true, Stats: user.Stats{TotalPoints: 5}},
			"bob":   {ID: "bob", Name: "Bob", Active: true, Stats: user.Stats{TotalPoints: 9}},
			"carol": {ID: "carol", Name: "Carol", Active: true, Stats: user.Stats{TotalPoints: 99}},
		},
	}
	service := NewRankingService(users, groups, nil)

	got, err := service.GroupRanking(context.Background(), "group-1", "bob")
	if err != nil {
		t.Fatalf("GroupRanking error: %v", err)
	}
	if len(got) != 2 || got[0].UserID != "bob" || got[1].UserID != "alice" {
		t.Fatalf("unexpected group ranking: %+v", got)
	}

	if _, err := service.GroupRanking(context.Background(), "group-1", "carol"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for outsider, got %v", err)
	}
	if _, err := service.GroupRanking(context.Background(), "missing", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing group, got %v", err)
	}
}

func TestRankingService_ApplyMatchResults_PartialFailure(t *testing.T) {
	t.Parallel()

	users := &stubUserRepository{
		byID: map[string]user.User{
			"alice": {ID: "alice", Name: "Alice", Active: true},
			"bob":   {ID: "bob", Name: "Bob", Active: true},
		},
	}
	service := NewRankingService(users, &stubGroupRepository{}, nil)

	m := finishedMatch("alice", match.PlayerSlot{UserID: "alice", PointsEarned: 10}, match.PlayerSlot{UserID: "ghost", PointsEarned: 5}, match.PlayerSlot{UserID: "bob", PointsEarned: 2})
	report := service.ApplyMatchResults(context.Background(), m)

	if !report.Partial() {
		t.Fatalf("expected a partial report: %+v", report)
	}
	if len(report.Updated) != 2 {
		t.Fatalf("expected 2 updates, got %+v", report.Updated)
	}
	if len(report.Failures) != 1 || report.Failures[0].UserID != "ghost" || report.Failures[0].Reason != "user not found" {
		t.Fatalf("unexpected failures: %+v", report.Failures)
	}

	if got := users.byID["alice"].Stats; got.TotalPoints != 10 || got.TotalWins != 1 || got.TotalMatches != 1 {
		t.Fatalf("unexpected winner stats: %+v", got)
	}
	if got := users.byID["bob"].Stats; got.TotalPoints != 2 || got.TotalWins != 0 {
		t.Fatalf("unexpected participant stats: %+v", got)
	}
}

func TestRankingService_ApplyMatchResults_SkipsCancelled(t *testing.T) {
	t.Parallel()

	users := &stubUserRepository{
		byID: map[string]user.User{"alice": {ID: "alice", Active: true}},
	}
	service := NewRankingService(users, &stubGroupRepository{}, nil)

	m := finishedMatch("alice", match.PlayerSlot{UserID: "alice", PointsEarned: 10})
	m.Status = match.StatusCancelled

	report := service.ApplyMatchResults(context.Background(), m)
	if len(report.Updated) != 0 || len(report.Failures) != 0 {
		t.Fatalf("cancelled matches must not touch stats: %+v", report)
	}
	if users.byID["alice"].Stats.TotalMatches != 0 {
		t.Fatalf("stats changed for a cancelled match")
	}
}

func finishedMatch(winnerID string, players ...match.PlayerSlot) match.Match {
	now := time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC)
	return match.Match{
		ID:          "match-1",
		GameID:      "catan",
		GroupID:     "group-1",
		ScheduledAt: now,
		ActualDate:  &now,
		Status:      match.StatusFinished,
		Players:     players,
		WinnerID:    winnerID,
		CreatedBy:   players[0].UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
