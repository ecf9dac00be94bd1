package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/hub"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/resolver"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/internal/testutil"
	"github.com/XavierBriggs/fortuna/services/consensus-engine/pkg/models"
)

func newTestHandler() *handlers.Handler {
	return handlers.NewHandler(hub.NewHub(), nil, nil, resolver.DefaultSizingPolicy(), context.Background())
}

func TestHealthCheck(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" || body["service"] != "consensus-engine" {
		t.Errorf("body = %v", body)
	}
}

func TestEvaluate_InlineSnapshot(t *testing.T) {
	handler := newTestHandler()

	reqBody := handlers.EvaluateRequest{
		Markets: []models.MarketType{models.MarketTotal},
		Picks: []models.Pick{
			testutil.TotalPick("a", "OVER 225.5"),
			testutil.TotalPick("b", "OVER 225.5"),
		},
		Performance: testutil.SnapshotFixture(
			testutil.RecordFixture("a", "5.0"),
			testutil.RecordFixture("b", "3.0"),
		),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.Evaluate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result models.BatchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(result.Decisions))
	}
	if !result.Decisions[0].ShouldGenerate {
		t.Errorf("2-vs-0 should generate: %s", result.Decisions[0].Reason)
	}
}

func TestEvaluate_RejectsEmptyPicks(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewReader([]byte(`{"picks":[]}`)))
	rec := httptest.NewRecorder()
	handler.Evaluate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEvaluate_RejectsBadJSON(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewReader([]byte(`{not json`)))
	rec := httptest.NewRecorder()
	handler.Evaluate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
