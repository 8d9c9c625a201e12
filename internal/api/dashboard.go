package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kweissmann/hireview/backend/internal/metrics"
	"github.com/kweissmann/hireview/backend/internal/types"
	"github.com/rs/zerolog"
)

// StatsProvider computes aggregate stats from raw filter inputs
type StatsProvider interface {
	GetStats(ctx context.Context, rawRecruiterID, rawDate string) (*types.AggregateResult, error)
}

// DashboardHandler serves the synchronous dashboard stats endpoint
type DashboardHandler struct {
	stats  StatsProvider
	logger zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(stats StatsProvider, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		stats:  stats,
		logger: logger.With().Str("component", "dashboard").Logger(),
	}
}

// HandleStats handles GET /api/dashboard-stats
func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	m := metrics.Get()

	recruiterID := r.URL.Query().Get("recruiterId")
	date := r.URL.Query().Get("date")

	result, err := h.stats.GetStats(r.Context(), recruiterID, date)
	m.RecordStatsRequest(metrics.SourceHTTP, err)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		h.logger.Error().Err(err).
			Str("recruiter_id", recruiterID).
			Str("date", date).
			Msg("stats computation failed")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "failed to compute dashboard stats"})
		return
	}

	json.NewEncoder(w).Encode(result)
}
