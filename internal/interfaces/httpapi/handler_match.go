package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/usecase"
)

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createMatchRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	scheduledAt, err := parseRFC3339("scheduled_at", req.ScheduledAt)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.matchService.Create(ctx, usecase.CreateMatchInput{
		RequesterID: principal.UserID,
		GameID:      req.GameID,
		GroupID:     req.GroupID,
		ScheduledAt: scheduledAt,
		PlayerIDs:   req.PlayerIDs,
		Location:    req.Location,
		Notes:       req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "user_id", principal.UserID, "group_id", req.GroupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(ctx, created))
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	if _, ok := principalFromContext(ctx); !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	matchID := strings.TrimSpace(r.PathValue("matchID"))

	found, err := h.matchService.Get(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, found))
}

func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMatch")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	matchID := strings.TrimSpace(r.PathValue("matchID"))

	var req updateMatchRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	input := usecase.UpdateMatchInput{
		MatchID:     matchID,
		RequesterID: principal.UserID,
		Location:    req.Location,
		Notes:       req.Notes,
	}
	if req.ScheduledAt != nil {
		scheduledAt, err := parseRFC3339("scheduled_at", *req.ScheduledAt)
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		input.ScheduledAt = &scheduledAt
	}

	updated, err := h.matchService.Update(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update match failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, updated))
}

func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteMatch")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	matchID := strings.TrimSpace(r.PathValue("matchID"))

	if err := h.matchService.Delete(ctx, matchID, principal.UserID); err != nil {
		h.logger.WarnContext(ctx, "delete match failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *Handler) ConfirmAttendance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmAttendance")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	matchID := strings.TrimSpace(r.PathValue("matchID"))

	confirmed, err := h.matchService.ConfirmAttendance(ctx, matchID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "confirm attendance failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, confirmed))
}

func (h *Handler) CancelAttendance(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelAttendance")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	matchID := strings.TrimSpace(r.PathValue("matchID"))

	outcome, err := h.matchService.CancelAttendance(ctx, matchID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel attendance failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dto := cancelAttendanceDTO{Deleted: outcome.Deleted}
	if !outcome.Deleted {
		remaining := matchToDTO(ctx, outcome.Match)
		dto.Match = &remaining
	}
	writeSuccess(ctx, w, http.StatusOK, dto)
}

func (h *Handler) FinishMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FinishMatch")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	matchID := strings.TrimSpace(r.PathValue("matchID"))

	var req finishMatchRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	results := make([]match.PlayerResult, 0, len(req.Results))
	for _, record := range req.Results {
		results = append(results, match.PlayerResult{
			UserID:   record.UserID,
			Score:    record.Score,
			Position: record.Position,
		})
	}

	var duration *match.Duration
	if req.Duration != nil {
		duration = &match.Duration{Value: req.Duration.Value, Unit: req.Duration.Unit}
	}

	finished, err := h.matchService.Finish(ctx, usecase.FinishMatchInput{
		MatchID:     matchID,
		RequesterID: principal.UserID,
		WinnerID:    req.WinnerUserID,
		Results:     results,
		Duration:    duration,
		Notes:       req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "finish match failed", "user_id", principal.UserID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, finishMatchDTO{
		Match:   matchToDTO(ctx, finished.Match),
		Ranking: rankingReportToDTO(ctx, finished.Report),
	})
}

func (h *Handler) ListGroupMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGroupMatches")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	groupID := strings.TrimSpace(r.PathValue("groupID"))

	matches, err := h.matchService.ListByGroup(ctx, groupID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "list group matches failed", "user_id", principal.UserID, "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(ctx, m))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
