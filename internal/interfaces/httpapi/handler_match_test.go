package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/boardkeep/tabletop-league/internal/domain/user"
	"github.com/boardkeep/tabletop-league/internal/infrastructure/repository/memory"
	"github.com/boardkeep/tabletop-league/internal/platform/id"
	"github.com/boardkeep/tabletop-league/internal/platform/logging"
	"github.com/boardkeep/tabletop-league/internal/usecase"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	logger := logging.NewNop()
	users := memory.NewUserRepository(memory.SeedUsers())
	groups := memory.NewGroupRepository(memory.SeedGroups())
	matches := memory.NewMatchRepository(memory.SeedMatches())

	rankingService := usecase.NewRankingService(users, groups, logger)
	matchService := usecase.NewMatchService(matches, groups, rankingService, id.NewUUIDGenerator(), logger)

	return NewHandler(matchService, rankingService, logger)
}

func authedRequest(method, target, body, userID string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req = req.WithContext(withPrincipal(req.Context(), user.Principal{UserID: userID}))
	}
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestHandler_CreateMatch(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	payload := `{
		"game_id": "wingspan",
		"group_id": "grp-thursday-night",
		"scheduled_at": "2027-01-14T19:00:00Z",
		"player_ids": ["usr-bima", "usr-citra"],
		"location": "Ayu's place"
	}`

	req := authedRequest(http.MethodPost, "/v1/matches", payload, "usr-ayu")
	rec := httptest.NewRecorder()
	handler.CreateMatch(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}
	if got, _ := data["status"].(string); got != "SCHEDULED" {
		t.Fatalf("expected status SCHEDULED, got %v", data["status"])
	}
	players, _ := data["players"].([]any)
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
}

func TestHandler_CreateMatch_MissingPrincipal(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	req := authedRequest(http.MethodPost, "/v1/matches", `{"game_id":"catan","group_id":"grp-thursday-night","scheduled_at":"2027-01-14T19:00:00Z"}`, "")
	rec := httptest.NewRecorder()
	handler.CreateMatch(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandler_CreateMatch_RejectsBadTimestamp(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	req := authedRequest(http.MethodPost, "/v1/matches", `{"game_id":"catan","group_id":"grp-thursday-night","scheduled_at":"tomorrow evening"}`, "usr-ayu")
	rec := httptest.NewRecorder()
	handler.CreateMatch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_GetMatch_NotFound(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	req := authedRequest(http.MethodGet, "/v1/matches/mtc-missing", "", "usr-ayu")
	req.SetPathValue("matchID", "mtc-missing")
	rec := httptest.NewRecorder()
	handler.GetMatch(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandler_FinishMatch(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	payload := `{
		"winner_user_id": "usr-bima",
		"results": [
			{"user_id": "usr-bima", "score": 11, "position": 1},
			{"user_id": "usr-ayu", "score": 9, "position": 2},
			{"user_id": "usr-citra", "score": 7, "position": 3}
		],
		"duration": {"value": 90, "unit": "minutes"}
	}`

	req := authedRequest(http.MethodPost, "/v1/matches/mtc-catan-opening/finish", payload, "usr-ayu")
	req.SetPathValue("matchID", "mtc-catan-opening")
	rec := httptest.NewRecorder()
	handler.FinishMatch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}
	matchObj, _ := data["match"].(map[string]any)
	if got, _ := matchObj["status"].(string); got != "FINISHED" {
		t.Fatalf("expected match status FINISHED, got %v", matchObj["status"])
	}
	rankingObj, _ := data["ranking"].(map[string]any)
	updated, _ := rankingObj["updated"].([]any)
	if len(updated) != 3 {
		t.Fatalf("expected 3 ranking updates, got %d", len(updated))
	}
}

func TestHandler_FinishMatch_SecondCallConflicts(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	payload := `{"winner_user_id": "usr-bima", "results": [{"user_id": "usr-bima", "position": 1}]}`

	for attempt, wantCode := range []int{http.StatusOK, http.StatusConflict} {
		req := authedRequest(http.MethodPost, "/v1/matches/mtc-terraforming/finish", payload, "usr-eka")
		req.SetPathValue("matchID", "mtc-terraforming")
		rec := httptest.NewRecorder()
		handler.FinishMatch(rec, req)

		if rec.Code != wantCode {
			t.Fatalf("attempt %d: expected status %d, got %d: %s", attempt+1, wantCode, rec.Code, rec.Body.String())
		}
	}
}

func TestHandler_CancelAttendance_ReportsDeletion(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	req := authedRequest(http.MethodPost, "/v1/matches/mtc-terraforming/cancel-attendance", "", "usr-bima")
	req.SetPathValue("matchID", "mtc-terraforming")
	rec := httptest.NewRecorder()
	handler.CancelAttendance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}
	if deleted, _ := data["deleted"].(bool); !deleted {
		t.Fatalf("expected deleted=true when roster falls below two players")
	}
}

func TestHandler_ListGroupMatches_NonMemberForbidden(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	req := authedRequest(http.MethodGet, "/v1/groups/grp-thursday-night/matches", "", "usr-eka")
	req.SetPathValue("groupID", "grp-thursday-night")
	rec := httptest.NewRecorder()
	handler.ListGroupMatches(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
}

func TestHandler_GroupRanking(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t)
	req := authedRequest(http.MethodGet, "/v1/groups/grp-thursday-night/rankings", "", "usr-bima")
	req.SetPathValue("groupID", "grp-thursday-night")
	rec := httptest.NewRecorder()
	handler.GroupRanking(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	entries, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array in response")
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 ranking entries, got %d", len(entries))
	}
}
