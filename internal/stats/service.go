package stats

import (
	"context"
	"time"

	"github.com/kweissmann/hireview/backend/internal/types"
	"github.com/rs/zerolog"
)

// Service is the synchronous stats entry point shared by the REST
// endpoint and the live channel, so both paths use one normalization
// rule and one source of truth.
type Service struct {
	engine *Engine
	loc    *time.Location
	logger zerolog.Logger
}

// NewService creates a new stats service
func NewService(engine *Engine, loc *time.Location, logger zerolog.Logger) *Service {
	return &Service{
		engine: engine,
		loc:    loc,
		logger: logger.With().Str("component", "stats_service").Logger(),
	}
}

// GetStats normalizes raw filter inputs and computes the aggregates.
// Malformed dates are coerced to the current day rather than rejected.
func (s *Service) GetStats(ctx context.Context, rawRecruiterID, rawDate string) (*types.AggregateResult, error) {
	filter, coerced := ResolveFilter(rawRecruiterID, rawDate, s.loc)
	if coerced {
		s.logger.Debug().
			Str("raw_date", rawDate).
			Str("date_key", filter.DateKey()).
			Msg("unparseable date coerced to current day")
	}

	return s.engine.ComputeAggregates(ctx, filter)
}
