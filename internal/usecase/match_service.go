package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/boardkeep/tabletop-league/internal/domain/group"
	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/domain/ranking"
	"github.com/boardkeep/tabletop-league/internal/platform/id"
	"github.com/boardkeep/tabletop-league/internal/platform/logging"
)

// MatchService is the single entry point for the match lifecycle. It
// decides who may do what and when; the match entity itself enforces
// the structural invariants.
type MatchService struct {
	matches    match.Repository
	groups     group.Repository
	rankingSvc *RankingService
	idGen      id.Generator
	logger     *logging.Logger
	now        func() time.Time
}

func NewMatchService(
	matches match.Repository,
	groups group.Repository,
	rankingSvc *RankingService,
	idGen id.Generator,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		matches:    matches,
		groups:     groups,
		rankingSvc: rankingSvc,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

type CreateMatchInput struct {
	RequesterID string
	GameID      string
	GroupID     string
	ScheduledAt time.Time
	PlayerIDs   []string
	Location    string
	Notes       string
}

func (s *MatchService) Create(ctx context.Context, input CreateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Create")
	defer span.End()

	if strings.TrimSpace(input.RequesterID) == "" {
		return match.Match{}, fmt.Errorf("%w: requester id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.GameID) == "" {
		return match.Match{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	g, ok, err := s.groups.GetByID(ctx, input.GroupID)
	if err != nil {
		return match.Match{}, fmt.Errorf("load group %s: %w", input.GroupID, err)
	}
	if !ok {
		return match.Match{}, fmt.Errorf("%w: group %s", ErrNotFound, input.GroupID)
	}
	if !g.IsMember(input.RequesterID) {
		return match.Match{}, fmt.Errorf("%w: requester is not a group member", ErrForbidden)
	}

	m, err := match.New(match.NewMatchParams{
		ID:          s.idGen.NewID(),
		GameID:      input.GameID,
		GroupID:     g.ID,
		ScheduledAt: input.ScheduledAt,
		CreatedBy:   input.RequesterID,
		PlayerIDs:   input.PlayerIDs,
		Location:    input.Location,
		Notes:       input.Notes,
	}, g.MemberSet(), s.now())
	if err != nil {
		return match.Match{}, err
	}

	if err := s.matches.Create(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("create match: %w", err)
	}

	s.logger.InfoContext(ctx, "match created",
		"match_id", m.ID,
		"group_id", m.GroupID,
		"created_by", m.CreatedBy,
		"players", len(m.Players),
	)
	return m, nil
}

func (s *MatchService) Get(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Get")
	defer span.End()

	return s.load(ctx, matchID)
}

func (s *MatchService) ListByGroup(ctx context.Context, groupID, requesterID string) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListByGroup")
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

	matches, err := s.matches.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list matches of group %s: %w", groupID, err)
	}
	return matches, nil
}

type UpdateMatchInput struct {
	MatchID     string
	RequesterID string
	ScheduledAt *time.Time
	Location    *string
	Notes       *string
}

func (s *MatchService) Update(ctx context.Context, input UpdateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Update")
	defer span.End()

	m, err := s.load(ctx, input.MatchID)
	if err != nil {
		return match.Match{}, err
	}
	if err := s.authorize(ctx, input.RequesterID, m); err != nil {
		return match.Match{}, err
	}
	switch m.Status {
	case match.StatusInProgress:
		return match.Match{}, fmt.Errorf("%w: match is in progress", ErrInvalidState)
	case match.StatusFinished:
		return match.Match{}, fmt.Errorf("%w: match is already finished", ErrInvalidState)
	}

	now := s.now()
	if input.ScheduledAt != nil && !input.ScheduledAt.Equal(m.ScheduledAt) {
		if err := m.Reschedule(input.RequesterID, *input.ScheduledAt, now); err != nil {
			return match.Match{}, err
		}
	}
	if input.Location != nil {
		m.Location = strings.TrimSpace(*input.Location)
	}
	if input.Notes != nil {
		m.Notes = strings.TrimSpace(*input.Notes)
	}
	m.UpdatedAt = now

	if err := s.matches.Update(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("update match %s: %w", m.ID, err)
	}
	return m, nil
}

func (s *MatchService) ConfirmAttendance(ctx context.Context, matchID, requesterID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ConfirmAttendance")
	defer span.End()

	m, err := s.load(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if m.Status != match.StatusScheduled {
		return match.Match{}, fmt.Errorf("%w: match is no longer open for confirmation", ErrInvalidState)
	}
	if err := m.Confirm(requesterID); err != nil {
		return match.Match{}, err
	}
	m.UpdatedAt = s.now()

	if err := s.matches.Update(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("update match %s: %w", m.ID, err)
	}
	return m, nil
}

// CancelOutcome is the tagged result of an attendance cancellation:
// either the updated match, or the fact that the match was deleted
// because the roster fell below the two player floor.
type CancelOutcome struct {
	Deleted bool
	Match   match.Match
}

func (s *MatchService) CancelAttendance(ctx context.Context, matchID, requesterID string) (CancelOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CancelAttendance")
	defer span.End()

	m, err := s.load(ctx, matchID)
	if err != nil {
		return CancelOutcome{}, err
	}
	if m.Status.Terminal() {
		return CancelOutcome{}, fmt.Errorf("%w: match is already %s", ErrInvalidState, strings.ToLower(string(m.Status)))
	}

	// The creator only toggles their own confirmation; the match has no
	// meaning without its owner.
	if requesterID == m.CreatedBy {
		if err := m.Unconfirm(requesterID); err != nil {
			return CancelOutcome{}, err
		}
		m.UpdatedAt = s.now()
		if err := s.matches.Update(ctx, m); err != nil {
			return CancelOutcome{}, fmt.Errorf("update match %s: %w", m.ID, err)
		}
		return CancelOutcome{Match: m}, nil
	}

	remaining, err := m.RemovePlayer(requesterID)
	if err != nil {
		return CancelOutcome{}, err
	}
	if remaining < match.MinPlayers {
		if err := s.matches.Delete(ctx, m.ID); err != nil {
			return CancelOutcome{}, fmt.Errorf("delete match %s: %w", m.ID, err)
		}
		s.logger.InfoContext(ctx, "match deleted after roster fell below floor",
			"match_id", m.ID,
			"left_by", requesterID,
		)
		return CancelOutcome{Deleted: true}, nil
	}

	m.UpdatedAt = s.now()
	if err := s.matches.Update(ctx, m); err != nil {
		return CancelOutcome{}, fmt.Errorf("update match %s: %w", m.ID, err)
	}
	return CancelOutcome{Match: m}, nil
}

type FinishMatchInput struct {
	MatchID     string
	RequesterID string
	WinnerID    string
	Results     []match.PlayerResult
	Duration    *match.Duration
	Notes       string
}

type FinishMatchOutput struct {
	Match  match.Match
	Report ranking.Report
}

// Finish terminates a match, awards points and updates aggregates. The
// FINISHED transition is a conditional update at the storage layer, so
// two concurrent calls award points at most once.
func (s *MatchService) Finish(ctx context.Context, input FinishMatchInput) (FinishMatchOutput, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Finish")
	defer span.End()

	m, err := s.load(ctx, input.MatchID)
	if err != nil {
		return FinishMatchOutput{}, err
	}
	if err := s.authorize(ctx, input.RequesterID, m); err != nil {
		return FinishMatchOutput{}, err
	}
	if m.Status == match.StatusFinished {
		return FinishMatchOutput{}, fmt.Errorf("%w: match is already finished", ErrInvalidState)
	}

	if err := m.ApplyResults(input.Results); err != nil {
		return FinishMatchOutput{}, err
	}
	if strings.TrimSpace(input.WinnerID) != "" {
		if err := m.SetWinner(strings.TrimSpace(input.WinnerID)); err != nil {
			return FinishMatchOutput{}, err
		}
	}
	if input.Duration != nil {
		d := *input.Duration
		m.Duration = &d
	}
	if strings.TrimSpace(input.Notes) != "" {
		m.Notes = strings.TrimSpace(input.Notes)
	}
	if err := m.Finish(s.now()); err != nil {
		return FinishMatchOutput{}, err
	}

	won, err := s.matches.FinishIfPending(ctx, m)
	if err != nil {
		return FinishMatchOutput{}, fmt.Errorf("finish match %s: %w", m.ID, err)
	}
	if !won {
		return FinishMatchOutput{}, fmt.Errorf("%w: match is already finished", ErrInvalidState)
	}

	// Ranking correctness is the higher value invariant: the group
	// counter failing must never roll back point awarding.
	var report ranking.Report
	var wg conc.WaitGroup
	wg.Go(func() {
		report = s.rankingSvc.ApplyMatchResults(ctx, m)
	})
	wg.Go(func() {
		if err := s.groups.IncrementMatchesPlayed(ctx, m.GroupID); err != nil {
			s.logger.WarnContext(ctx, "increment group match counter failed",
				"group_id", m.GroupID,
				"match_id", m.ID,
				"error", err,
			)
		}
	})
	wg.Wait()

	if report.Partial() {
		s.logger.WarnContext(ctx, "ranking update partially failed",
			"match_id", m.ID,
			"updated", len(report.Updated),
			"failed", len(report.Failures),
		)
	}

	return FinishMatchOutput{Match: m, Report: report}, nil
}

func (s *MatchService) Delete(ctx context.Context, matchID, requesterID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Delete")
	defer span.End()

	m, err := s.load(ctx, matchID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, requesterID, m); err != nil {
		return err
	}
	if m.Status == match.StatusFinished {
		return fmt.Errorf("%w: finished matches cannot be deleted", ErrInvalidState)
	}

	if err := s.matches.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("delete match %s: %w", m.ID, err)
	}
	return nil
}

func (s *MatchService) load(ctx context.Context, matchID string) (match.Match, error) {
	if strings.TrimSpace(matchID) == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	m, ok, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("load match %s: %w", matchID, err)
	}
	if !ok {
		return match.Match{}, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	return m, nil
}

// authorize grants the action to the match creator or to the owning
// group's administrator, computed once per request.
func (s *MatchService) authorize(ctx context.Context, requesterID string, m match.Match) error {
	if strings.TrimSpace(requesterID) == "" {
		return fmt.Errorf("%w: requester id is required", ErrInvalidInput)
	}
	if requesterID == m.CreatedBy {
		return nil
	}

	g, ok, err := s.groups.GetByID(ctx, m.GroupID)
	if err != nil {
		return fmt.Errorf("load group %s: %w", m.GroupID, err)
	}
	if ok && g.AdminUserID == requesterID {
		return nil
	}
	return fmt.Errorf("%w: only the match creator or the group admin may do this", ErrForbidden)
}
