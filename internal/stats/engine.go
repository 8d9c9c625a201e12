package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kweissmann/hireview/backend/internal/cache"
	"github.com/kweissmann/hireview/backend/internal/metrics"
	"github.com/kweissmann/hireview/backend/internal/storage"
	"github.com/kweissmann/hireview/backend/internal/types"
	"github.com/rs/zerolog"
)

// Engine computes aggregate dashboard statistics over the record store.
// It never writes; each computation reads one snapshot and produces an
// independent result, so concurrent computations share no mutable state.
type Engine struct {
	store      storage.Store
	recruiters *cache.RecruiterCache
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewEngine creates a new aggregation engine. timeout bounds each store
// query; on expiry the computation fails as a store outage.
func NewEngine(store storage.Store, recruiters *cache.RecruiterCache, timeout time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		store:      store,
		recruiters: recruiters,
		timeout:    timeout,
		logger:     logger.With().Str("component", "stats_engine").Logger(),
	}
}

// ComputeAggregates computes the dashboard figures for one filter. Either
// the full result is returned or a storage.ErrStoreUnavailable failure;
// no partial aggregate is ever produced.
func (e *Engine) ComputeAggregates(ctx context.Context, filter Filter) (*types.AggregateResult, error) {
	start := time.Now()
	m := metrics.Get()

	qctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	records, err := e.store.GetRecordsByDate(qctx, filter.DateKey())
	if err != nil {
		m.RecordStoreError()
		e.logger.Error().Err(err).Str("date_key", filter.DateKey()).Msg("record store query failed")
		return nil, fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
	}

	matched := filterRecords(records, filter)

	result := &types.AggregateResult{
		RecruiterCalls: make([]types.RecruiterCalls, 0, len(matched)),
		ClientCalls:    make([]types.ClientCalls, 0, len(matched)),
	}
	result.TotalCalls = len(matched)

	// Group by recruiter and client in one pass, keeping first-seen order
	recruiterCounts := make(map[string]int)
	clientCounts := make(map[string]int)
	var recruiterOrder, clientOrder []string

	for _, record := range matched {
		if record.HRStatus == types.StatusSelect {
			result.TotalSelected++
		}
		if _, seen := recruiterCounts[record.CreatedBy]; !seen {
			recruiterOrder = append(recruiterOrder, record.CreatedBy)
		}
		recruiterCounts[record.CreatedBy]++
		if _, seen := clientCounts[record.Client]; !seen {
			clientOrder = append(clientOrder, record.Client)
		}
		clientCounts[record.Client]++
	}

	// Left-join recruiter groups against display metadata; a group whose
	// recruiter cannot be resolved still appears, with an empty name
	for _, recruiterID := range recruiterOrder {
		entry := types.RecruiterCalls{
			RecruiterID: recruiterID,
			Calls:       recruiterCounts[recruiterID],
		}
		recruiter, found, err := e.recruiters.Lookup(qctx, recruiterID)
		if err != nil {
			m.RecordStoreError()
			e.logger.Error().Err(err).Str("recruiter_id", recruiterID).Msg("recruiter lookup failed")
			return nil, fmt.Errorf("%w: %v", storage.ErrStoreUnavailable, err)
		}
		if found {
			entry.Name = recruiter.Name
		}
		result.RecruiterCalls = append(result.RecruiterCalls, entry)
	}

	for _, client := range clientOrder {
		result.ClientCalls = append(result.ClientCalls, types.ClientCalls{
			Client: client,
			Calls:  clientCounts[client],
		})
	}

	// Sort client breakdown by count descending; stable sort keeps
	// first-seen order among ties
	sort.SliceStable(result.ClientCalls, func(i, j int) bool {
		return result.ClientCalls[i].Calls > result.ClientCalls[j].Calls
	})

	m.ObserveAggregation(time.Since(start))

	e.logger.Debug().
		Str("date_key", filter.DateKey()).
		Str("recruiter_id", filter.RecruiterID).
		Int("total_calls", result.TotalCalls).
		Int("total_selected", result.TotalSelected).
		Msg("aggregates computed")

	return result, nil
}

// filterRecords applies the match predicate: createdAt inside the day
// window and, when set, an exact createdBy match. The store already
// partitions by day; the window check guards against records whose
// timestamp disagrees with their partition key.
func filterRecords(records []types.CandidateRecord, filter Filter) []types.CandidateRecord {
	start, end := filter.Window()

	matched := make([]types.CandidateRecord, 0, len(records))
	for _, record := range records {
		if filter.RecruiterID != "" && record.CreatedBy != filter.RecruiterID {
			continue
		}
		if createdAt, err := time.Parse(time.RFC3339, record.CreatedAt); err == nil {
			if createdAt.Before(start) || !createdAt.Before(end) {
				continue
			}
		}
		matched = append(matched, record)
	}
	return matched
}
