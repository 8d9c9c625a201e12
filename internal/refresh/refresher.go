package refresh

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Target is anything that can push fresh snapshots to its sessions
type Target interface {
	RequestRefresh()
	SessionCount() int
}

// Refresher coalesces write notifications into hub refreshes. A burst of
// ingested records produces one refresh after the debounce window instead
// of one per write.
type Refresher struct {
	target   Target
	debounce time.Duration
	notify   chan struct{}
	logger   zerolog.Logger
}

// NewRefresher creates a new Refresher
func NewRefresher(target Target, debounce time.Duration, logger zerolog.Logger) *Refresher {
	return &Refresher{
		target:   target,
		debounce: debounce,
		notify:   make(chan struct{}, 1),
		logger:   logger,
	}
}

// Notify signals that the underlying data changed. Non-blocking; a
// pending notification covers this one too.
func (r *Refresher) Notify() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Start runs the debounce loop until the context is cancelled
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info().Dur("debounce", r.debounce).Msg("refresher started")

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			r.logger.Info().Msg("refresher stopped")
			return

		case <-r.notify:
			// First write starts the window; later writes inside the
			// window ride along with the pending refresh
			if timer == nil {
				timer = time.NewTimer(r.debounce)
				fire = timer.C
			}

		case now := <-fire:
			timer = nil
			fire = nil

			r.target.RequestRefresh()
			r.logger.Debug().
				Time("at", now).
				Int("sessions", r.target.SessionCount()).
				Msg("refresh requested")
		}
	}
}
