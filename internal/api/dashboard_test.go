package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kweissmann/hireview/backend/internal/types"
	"github.com/rs/zerolog"
)

type stubStats struct {
	result      *types.AggregateResult
	err         error
	recruiterID string
	date        string
}

func (s *stubStats) GetStats(_ context.Context, rawRecruiterID, rawDate string) (*types.AggregateResult, error) {
	s.recruiterID = rawRecruiterID
	s.date = rawDate
	return s.result, s.err
}

func TestHandleStatsReturnsAggregates(t *testing.T) {
	stub := &stubStats{result: &types.AggregateResult{
		TotalCalls:    5,
		TotalSelected: 2,
		RecruiterCalls: []types.RecruiterCalls{
			{RecruiterID: "R1", Name: "Ada", Calls: 5},
		},
		ClientCalls: []types.ClientCalls{
			{Client: "Acme", Calls: 5},
		},
	}}
	handler := NewDashboardHandler(stub, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard-stats?recruiterId=R1&date=2026-03-02", nil)
	w := httptest.NewRecorder()
	handler.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	if stub.recruiterID != "R1" || stub.date != "2026-03-02" {
		t.Errorf("query params not forwarded, got %q/%q", stub.recruiterID, stub.date)
	}

	var result types.AggregateResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if result.TotalCalls != 5 || result.TotalSelected != 2 {
		t.Errorf("expected 5/2, got %d/%d", result.TotalCalls, result.TotalSelected)
	}
	if result.RecruiterCalls[0].Name != "Ada" {
		t.Errorf("unexpected recruiter breakdown: %+v", result.RecruiterCalls)
	}
}

func TestHandleStatsMissingParamsStillSucceeds(t *testing.T) {
	stub := &stubStats{result: &types.AggregateResult{
		RecruiterCalls: []types.RecruiterCalls{},
		ClientCalls:    []types.ClientCalls{},
	}}
	handler := NewDashboardHandler(stub, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard-stats", nil)
	w := httptest.NewRecorder()
	handler.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.recruiterID != "" || stub.date != "" {
		t.Errorf("expected empty raw params, got %q/%q", stub.recruiterID, stub.date)
	}
}

func TestHandleStatsStoreFailureReturns500(t *testing.T) {
	stub := &stubStats{err: errors.New("dynamodb: connection refused")}
	handler := NewDashboardHandler(stub, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard-stats?date=2026-03-02", nil)
	w := httptest.NewRecorder()
	handler.HandleStats(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if resp["error"] != "failed to compute dashboard stats" {
		t.Errorf("error body must stay generic, got %q", resp["error"])
	}
}
