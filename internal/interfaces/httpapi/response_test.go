package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/boardkeep/tabletop-league/internal/domain/match"
	"github.com/boardkeep/tabletop-league/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{"not found", fmt.Errorf("%w: match m-1", usecase.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", usecase.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"forbidden", fmt.Errorf("%w: not the creator", usecase.ErrForbidden), http.StatusForbidden, "PERMISSION_DENIED"},
		{"not invited", match.ErrNotInvited, http.StatusForbidden, "PERMISSION_DENIED"},
		{"invalid state", fmt.Errorf("%w: match already finished", usecase.ErrInvalidState), http.StatusConflict, "FAILED_PRECONDITION"},
		{"already finished", match.ErrAlreadyFinished, http.StatusConflict, "FAILED_PRECONDITION"},
		{"too few players", match.ErrTooFewPlayers, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"duplicate position", match.ErrDuplicatePosition, http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"dependency unavailable", usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			writeError(context.Background(), rec, tc.err)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, rec.Code)
			}

			var body map[string]any
			if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unmarshal response body: %v", err)
			}
			errorObj, ok := body["error"].(map[string]any)
			if !ok {
				t.Fatalf("expected error object in response")
			}
			if got, _ := errorObj["status"].(string); got != tc.wantStatus {
				t.Fatalf("expected error status %s, got %v", tc.wantStatus, errorObj["status"])
			}
		})
	}
}
