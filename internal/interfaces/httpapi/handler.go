package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/domain/ranking"
	"github.com/boardkeep/tabletop-league/internal/platform/logging"
	"github.com/boardkeep/tabletop-league/internal/usecase"
)

type Handler struct {
	matchService   *usecase.MatchService
	rankingService *usecase.RankingService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	rankingService *usecase.RankingService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService:   matchService,
		rankingService: rankingService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type createMatchRequest struct {
	GameID      string   `json:"game_id" validate:"required,max=120"`
	GroupID     string   `json:"group_id" validate:"required"`
	ScheduledAt string   `json:"scheduled_at" validate:"required"`
	PlayerIDs   []string `json:"player_ids" validate:"omitempty,dive,required"`
	Location    string   `json:"location" validate:"omitempty,max=200"`
	Notes       string   `json:"notes" validate:"omitempty,max=2000"`
}

type updateMatchRequest struct {
	ScheduledAt *string `json:"scheduled_at" validate:"omitempty"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Notes       *string `json:"notes" validate:"omitempty,max=2000"`
}

type finishMatchRequest struct {
	WinnerUserID string               `json:"winner_user_id" validate:"omitempty"`
	Results      []playerResultRecord `json:"results" validate:"omitempty,dive"`
	Duration     *durationRecord      `json:"duration" validate:"omitempty"`
	Notes        string               `json:"notes" validate:"omitempty,max=2000"`
}

type playerResultRecord struct {
	UserID   string   `json:"user_id" validate:"required"`
	Score    *float64 `json:"score"`
	Position *int     `json:"position" validate:"omitempty,gt=0"`
}

type durationRecord struct {
	Value int    `json:"value" validate:"required,gt=0"`
	Unit  string `json:"unit" validate:"required,oneof=minutes hours"`
}

type matchPlayerDTO struct {
	UserID       string  `json:"user_id"`
	Confirmed    bool    `json:"confirmed"`
	Score        float64 `json:"score"`
	Position     *int    `json:"position,omitempty"`
	PointsEarned int     `json:"points_earned"`
}

type durationDTO struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

type matchDTO struct {
	ID           string           `json:"id"`
	GameID       string           `json:"game_id"`
	GroupID      string           `json:"group_id"`
	ScheduledAt  string           `json:"scheduled_at"`
	ActualDate   string           `json:"actual_date,omitempty"`
	Status       string           `json:"status"`
	Location     string           `json:"location,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	Players      []matchPlayerDTO `json:"players"`
	WinnerUserID string           `json:"winner_user_id,omitempty"`
	Duration     *durationDTO     `json:"duration,omitempty"`
	CreatedBy    string           `json:"created_by"`
	CreatedAtUTC string           `json:"created_at_utc"`
	UpdatedAtUTC string           `json:"updated_at_utc"`
}

type cancelAttendanceDTO struct {
	Deleted bool      `json:"deleted"`
	Match   *matchDTO `json:"match,omitempty"`
}

type finishMatchDTO struct {
	Match   matchDTO         `json:"match"`
	Ranking rankingReportDTO `json:"ranking"`
}

type rankingReportDTO struct {
	Updated  []rankingUpdateDTO  `json:"updated"`
	Failures []rankingFailureDTO `json:"failures"`
}

type rankingUpdateDTO struct {
	UserID       string `json:"user_id"`
	Points       int    `json:"points"`
	IsWinner     bool   `json:"is_winner"`
	TotalMatches int    `json:"total_matches"`
	TotalWins    int    `json:"total_wins"`
	TotalPoints  int    `json:"total_points"`
}

type rankingFailureDTO struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type rankingEntryDTO struct {
	Position     int     `json:"position"`
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	TotalPoints  int     `json:"total_points"`
	TotalMatches int     `json:"total_matches"`
	TotalWins    int     `json:"total_wins"`
	WinRate      float64 `json:"win_rate"`
}

func matchToDTO(ctx context.Context, v match.Match) matchDTO {
	ctx, span := startSpan(ctx, "httpapi.matchToDTO")
	defer span.End()

	players := make([]matchPlayerDTO, 0, len(v.Players))
	for _, slot := range v.Players {
		players = append(players, matchPlayerDTO{
			UserID:       slot.UserID,
			Confirmed:    slot.Confirmed,
			Score:        slot.Score,
			Position:     copyPosition(slot.Position),
			PointsEarned: slot.PointsEarned,
		})
	}

	var duration *durationDTO
	if v.Duration != nil {
		duration = &durationDTO{Value: v.Duration.Value, Unit: v.Duration.Unit}
	}

	return matchDTO{
		ID:           v.ID,
		GameID:       v.GameID,
		GroupID:      v.GroupID,
		ScheduledAt:  v.ScheduledAt.UTC().Format(time.RFC3339),
		ActualDate:   formatOptionalTime(v.ActualDate),
		Status:       string(v.Status),
		Location:     v.Location,
		Notes:        v.Notes,
		Players:      players,
		WinnerUserID: v.WinnerID,
		Duration:     duration,
		CreatedBy:    v.CreatedBy,
		CreatedAtUTC: v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC: v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func rankingReportToDTO(ctx context.Context, report ranking.Report) rankingReportDTO {
	ctx, span := startSpan(ctx, "httpapi.rankingReportToDTO")
	defer span.End()

	updated := make([]rankingUpdateDTO, 0, len(report.Updated))
	for _, item := range report.Updated {
		updated = append(updated, rankingUpdateDTO{
			UserID:       item.UserID,
			Points:       item.Points,
			IsWinner:     item.IsWinner,
			TotalMatches: item.StatsAfter.TotalMatches,
			TotalWins:    item.StatsAfter.TotalWins,
			TotalPoints:  item.StatsAfter.TotalPoints,
		})
	}

	failures := make([]rankingFailureDTO, 0, len(report.Failures))
	for _, item := range report.Failures {
		failures = append(failures, rankingFailureDTO{
			UserID: item.UserID,
			Reason: item.Reason,
		})
	}

	return rankingReportDTO{Updated: updated, Failures: failures}
}

func rankingEntryToDTO(v ranking.Entry) rankingEntryDTO {
	return rankingEntryDTO{
		Position:     v.Position,
		UserID:       v.UserID,
		Name:         v.Name,
		TotalPoints:  v.TotalPoints,
		TotalMatches: v.TotalMatches,
		TotalWins:    v.TotalWins,
		WinRate:      v.WinRate,
	}
}

func copyPosition(v *int) *int {
	if v == nil {
		return nil
	}
	pos := *v
	return &pos
}

func formatOptionalTime(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func parseRFC3339(field, value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339: %v", usecase.ErrInvalidInput, field, err)
	}
	return parsed, nil
}
