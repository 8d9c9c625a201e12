package websocket

import (
	"context"
	"sync"

	"github.com/kweissmann/hireview/backend/internal/metrics"
	"github.com/kweissmann/hireview/backend/internal/types"
	"github.com/rs/zerolog"
)

// StatsProvider computes aggregate stats from raw filter inputs. The live
// channel and the REST endpoint share one implementation so both paths
// apply the same normalization.
type StatsProvider interface {
	GetStats(ctx context.Context, rawRecruiterID, rawDate string) (*types.AggregateResult, error)
}

// Hub owns the registry of connected dashboard sessions. Entries are
// added on connect and removed on disconnect; nothing outside the hub
// mutates the set, and registry state does not survive a restart.
type Hub struct {
	// Registered sessions
	sessions map[*Client]bool

	// Register requests from new connections
	register chan *Client

	// Unregister requests from closing connections
	unregister chan *Client

	// Refresh requests (push fresh snapshots to all sessions)
	refresh chan struct{}

	// Mutex to protect sessions map
	mu sync.RWMutex

	// Stats backend shared with the synchronous endpoint
	stats StatsProvider

	// Logger
	logger zerolog.Logger
}

// NewHub creates a new Hub
func NewHub(stats StatsProvider, logger zerolog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		refresh:    make(chan struct{}, 1),
		stats:      stats,
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	m := metrics.Get()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.sessions[client] = true
			total := len(h.sessions)
			h.mu.Unlock()

			m.RecordSessionConnect()
			h.logger.Info().
				Str("connection_id", client.id).
				Int("total_sessions", total).
				Msg("session connected")

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.sessions[client]
			if ok {
				delete(h.sessions, client)
			}
			total := len(h.sessions)
			h.mu.Unlock()

			if ok {
				client.Close()
				m.RecordSessionDisconnect()
				h.logger.Info().
					Str("connection_id", client.id).
					Int("total_sessions", total).
					Msg("session disconnected")
			}

		case <-h.refresh:
			h.refreshSessions()
		}
	}
}

// SessionCount returns the number of connected sessions
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RequestRefresh asks the hub to push fresh snapshots to every session
// that has requested stats before. Non-blocking; a refresh already
// pending covers this request too.
func (h *Hub) RequestRefresh() {
	select {
	case h.refresh <- struct{}{}:
	default:
	}
}

// refreshSessions recomputes each session's last filter and pushes the
// result to that session only. Sessions that never sent a requestStats
// are skipped.
func (h *Hub) refreshSessions() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions))
	for client := range h.sessions {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	pushed := 0
	for _, client := range clients {
		req := client.LastFilter()
		if req == nil {
			continue
		}
		go client.pushStats(*req, metrics.SourceRefresh)
		pushed++
	}

	if pushed > 0 {
		h.logger.Debug().Int("sessions", pushed).Msg("refreshing session snapshots")
	}
}
