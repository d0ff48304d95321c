package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/boardkeep/tabletop-league/internal/domain/group"
	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/domain/ranking"
	"github.com/boardkeep/tabletop-league/internal/domain/user"
	"github.com/boardkeep/tabletop-league/internal/platform/logging"
	"github.com/boardkeep/tabletop-league/internal/platform/resilience"
)

const defaultRankingWorkers = 4

// RankingService aggregates per player statistics and renders the
// leaderboards from them.
type RankingService struct {
	users   user.Repository
	groups  group.Repository
	logger  *logging.Logger
	workers int

	flight resilience.SingleFlight
}

func NewRankingService(users user.Repository, groups group.Repository, logger *logging.Logger) *RankingService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RankingService{
		users:   users,
		groups:  groups,
		logger:  logger,
		workers: defaultRankingWorkers,
	}
}

// SetWorkers bounds the stats fan-out per finished match. Values below
// one keep the current pool size.
func (s *RankingService) SetWorkers(n int) {
	if n >= 1 {
		s.workers = n
	}
}

// ApplyMatchResults folds a finished match into every participant's
// running statistics. Players are updated independently; one missing or
// failing player never blocks the rest, it is reported instead.
func (s *RankingService) ApplyMatchResults(ctx context.Context, m match.Match) ranking.Report {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.ApplyMatchResults")
	defer span.End()

	if m.Status == match.StatusCancelled {
		return ranking.Report{}
	}

	type outcome struct {
		update  ranking.PlayerUpdate
		failure *ranking.PlayerFailure
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		s.logger.ErrorContext(ctx, "create ranking worker pool failed", "error", err)
		pool = nil
	}
	if pool != nil {
		defer pool.Release()
	}

	outcomes := make([]outcome, len(m.Players))
	var wg sync.WaitGroup
	for i, slot := range m.Players {
		i, slot := i, slot
		wg.Add(1)
		task := func() {
			defer wg.Done()

			delta := user.StatsDelta{
				Matches: 1,
				Points:  slot.PointsEarned,
			}
			if slot.UserID == m.WinnerID {
				delta.Wins = 1
			}

			stats, ok, err := s.users.IncrementStats(ctx, slot.UserID, delta)
			switch {
			case err != nil:
				outcomes[i] = outcome{failure: &ranking.PlayerFailure{
					UserID: slot.UserID,
					Reason: err.Error(),
				}}
			case !ok:
				outcomes[i] = outcome{failure: &ranking.PlayerFailure{
					UserID: slot.UserID,
					Reason: "user not found",
				}}
			default:
				outcomes[i] = outcome{update: ranking.PlayerUpdate{
					UserID:     slot.UserID,
					Points:     slot.PointsEarned,
					IsWinner:   slot.UserID == m.WinnerID,
					StatsAfter: stats,
				}}
			}
		}

		if pool == nil {
			task()
			continue
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			outcomes[i] = outcome{failure: &ranking.PlayerFailure{
				UserID: slot.UserID,
				Reason: err.Error(),
			}}
		}
	}
	wg.Wait()

	var report ranking.Report
	for _, o := range outcomes {
		if o.failure != nil {
			report.Failures = append(report.Failures, *o.failure)
			continue
		}
		report.Updated = append(report.Updated, o.update)
	}

	for _, f := range report.Failures {
		s.logger.WarnContext(ctx, "ranking update failed for player",
			"match_id", m.ID,
			"user_id", f.UserID,
			"reason", f.Reason,
		)
	}
	return report
}

// GlobalRanking returns the leaderboard across every active player.
// Concurrent identical requests share one computation.
func (s *RankingService) GlobalRanking(ctx context.Context) ([]ranking.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.GlobalRanking")
	defer span.End()

	result, err, _ := s.flight.Do("ranking:global", func() (any, error) {
		users, err := s.users.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active users: %w", err)
		}
		return buildEntries(users), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]ranking.Entry), nil
}

// GroupRanking returns the leaderboard restricted to a group's members.
// Only members may see it.
func (s *RankingService) GroupRanking(ctx context.Context, groupID, requesterID string) ([]ranking.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RankingService.GroupRanking")
	defer span.End()

	g, ok, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", groupID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
	}
	if !g.IsMember(requesterID) {
		return nil, fmt.Errorf("%w: requester is not a group member", ErrForbidden)
	}

	users, err := s.users.ListByIDs(ctx, g.MemberIDs)
	if err != nil {
		return nil, fmt.Errorf("list members of group %s: %w", groupID, err)
	}
	return buildEntries(users), nil
}

// buildEntries sorts by total points descending. The sort is stable so
// equal scores keep the repository's order, and positions are dense and
// start at one.
func buildEntries(users []user.User) []ranking.Entry {
	entries := make([]ranking.Entry, 0, len(users))
	for _, u := range users {
		e := ranking.Entry{
			UserID:       u.ID,
			Name:         u.Name,
			TotalPoints:  u.Stats.TotalPoints,
			TotalMatches: u.Stats.TotalMatches,
			TotalWins:    u.Stats.TotalWins,
		}
		if u.Stats.TotalMatches > 0 {
			e.WinRate = float64(u.Stats.TotalWins) / float64(u.Stats.TotalMatches)
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}
