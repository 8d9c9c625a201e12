package ingest

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kweissmann/hireview/backend/internal/cache"
	"github.com/kweissmann/hireview/backend/internal/metrics"
	"github.com/kweissmann/hireview/backend/internal/refresh"
	"github.com/kweissmann/hireview/backend/internal/stats"
	"github.com/kweissmann/hireview/backend/internal/storage"
	"github.com/kweissmann/hireview/backend/internal/types"
	"github.com/rs/zerolog"
)

// RecordInput is the write payload for a candidate call record
type RecordInput struct {
	CandidateName string         `json:"candidateName"`
	Client        string         `json:"client"`
	HRStatus      types.HRStatus `json:"hrStatus"`
	CreatedBy     string         `json:"createdBy"`
}

// Handler receives candidate records and recruiter upserts from the
// tracking frontend
type Handler struct {
	store      storage.Store
	recruiters *cache.RecruiterCache
	refresher  *refresh.Refresher
	loc        *time.Location
	logger     zerolog.Logger
}

// NewHandler creates a new ingest Handler
func NewHandler(store storage.Store, recruiters *cache.RecruiterCache, refresher *refresh.Refresher, loc *time.Location, logger zerolog.Logger) *Handler {
	return &Handler{
		store:      store,
		recruiters: recruiters,
		refresher:  refresher,
		loc:        loc,
		logger:     logger.With().Str("component", "ingest").Logger(),
	}
}

// HandleRecord handles POST /internal/records
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	m := metrics.Get()

	var input RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Error().Err(err).Msg("failed to decode record")
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	input.CreatedBy = strings.TrimSpace(input.CreatedBy)
	if input.CreatedBy == "" {
		http.Error(w, "createdBy is required", http.StatusBadRequest)
		return
	}

	now := time.Now().In(h.loc)
	record := types.CandidateRecord{
		DateKey:       now.Format(stats.DateKeyLayout),
		RecordID:      uuid.New().String(),
		CandidateName: strings.TrimSpace(input.CandidateName),
		Client:        strings.TrimSpace(input.Client),
		HRStatus:      input.HRStatus,
		CreatedBy:     input.CreatedBy,
		CreatedAt:     now.Format(time.RFC3339),
	}

	if err := h.store.SaveRecord(r.Context(), record); err != nil {
		h.logger.Error().Err(err).Str("record_id", record.RecordID).Msg("failed to save record")
		m.RecordStoreError()
		http.Error(w, "failed to save record", http.StatusInternalServerError)
		return
	}

	m.RecordRecordIngested()
	h.refresher.Notify()

	h.logger.Debug().
		Str("record_id", record.RecordID).
		Str("date", record.DateKey).
		Str("created_by", record.CreatedBy).
		Msg("record ingested")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"recordId": record.RecordID,
		"date":     record.DateKey,
	})
}

// HandleRecruiter handles PUT /internal/recruiters/{recruiterId}
func (h *Handler) HandleRecruiter(w http.ResponseWriter, r *http.Request) {
	m := metrics.Get()

	recruiterID := chi.URLParam(r, "recruiterId")
	if recruiterID == "" {
		http.Error(w, "recruiterId is required", http.StatusBadRequest)
		return
	}

	var recruiter types.Recruiter
	if err := json.NewDecoder(r.Body).Decode(&recruiter); err != nil {
		h.logger.Error().Err(err).Msg("failed to decode recruiter")
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	recruiter.RecruiterID = recruiterID

	if err := h.store.PutRecruiter(r.Context(), recruiter); err != nil {
		h.logger.Error().Err(err).Str("recruiter_id", recruiterID).Msg("failed to save recruiter")
		m.RecordStoreError()
		http.Error(w, "failed to save recruiter", http.StatusInternalServerError)
		return
	}

	// Drop the cached name so the next aggregation picks up the change
	h.recruiters.Invalidate(recruiterID)
	m.RecordRecruiterUpserted()
	h.refresher.Notify()

	h.logger.Info().Str("recruiter_id", recruiterID).Msg("recruiter upserted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"recruiterId": recruiterID})
}
