package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/boardkeep/tabletop-league/internal/usecase"
)

func (h *Handler) GlobalRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GlobalRanking")
	defer span.End()

	if _, ok := principalFromContext(ctx); !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	entries, err := h.rankingService.GlobalRanking(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "global ranking failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]rankingEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, rankingEntryToDTO(entry))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GroupRanking(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GroupRanking")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}
	groupID := strings.TrimSpace(r.PathValue("groupID"))

	entries, err := h.rankingService.GroupRanking(ctx, groupID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "group ranking failed", "user_id", principal.UserID, "group_id", groupID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]rankingEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, rankingEntryToDTO(entry))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
