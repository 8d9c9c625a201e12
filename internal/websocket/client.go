package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kweissmann/hireview/backend/internal/config"
	"github.com/kweissmann/hireview/backend/internal/metrics"
	"github.com/kweissmann/hireview/backend/internal/types"
	"github.com/rs/zerolog"
)

// genericComputeError is the only failure detail exposed to clients
const genericComputeError = "failed to compute dashboard stats"

// Client is one live dashboard session: a websocket connection plus the
// last filter it asked for.
type Client struct {
	// Unique connection ID
	id string

	// The hub this session belongs to
	hub *Hub

	// The websocket connection
	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	// Configuration
	config *config.Config

	// Logger
	logger zerolog.Logger

	// done is closed when the read pump exits
	done chan struct{}

	// closeOnce ensures send channel is closed only once
	closeOnce sync.Once

	// lastFilter is the most recent requestStats payload; overwritten on
	// every request, read by push refreshes
	mu         sync.Mutex
	lastFilter *types.StatsRequest
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, cfg *config.Config, logger zerolog.Logger) *Client {
	connectionID := uuid.New().String()
	return &Client{
		id:     connectionID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		config: cfg,
		logger: logger.With().Str("connection_id", connectionID).Logger(),
		done:   make(chan struct{}),
	}
}

// LastFilter returns the session's most recent stats request, or nil if
// it never sent one
func (c *Client) LastFilter() *types.StatsRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFilter == nil {
		return nil
	}
	req := *c.lastFilter
	return &req
}

func (c *Client) setLastFilter(req types.StatsRequest) {
	c.mu.Lock()
	c.lastFilter = &req
	c.mu.Unlock()
}

// readPump pumps messages from the websocket connection to the session
// handler
//
// The application runs readPump in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine.
func (c *Client) readPump() {
	defer func() {
		close(c.done)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error().Err(err).Msg("websocket read error")
			}
			break
		}

		c.handleMessage(message)
	}
}

// handleMessage processes one inbound message from the session
func (c *Client) handleMessage(message []byte) {
	var msgType struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(message, &msgType); err != nil {
		c.logger.Debug().Err(err).Msg("failed to parse message type")
		return
	}

	switch msgType.Type {
	case "requestStats":
		var req types.StatsRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.logger.Debug().Err(err).Msg("failed to parse requestStats message")
			return
		}
		c.setLastFilter(req)

		// Each computation is an independent unit of work; a slow store
		// must not block this session's read loop or other sessions.
		// Responses arrive in completion order, not request order.
		go c.pushStats(req, metrics.SourceChannel)

	default:
		c.logger.Debug().Str("type", msgType.Type).Msg("unknown message type")
	}
}

// pushStats computes aggregates for one request and emits a statsUpdate
// to this session only. A failure becomes an error payload, never a
// closed connection. If the session is gone by the time the result is
// ready, the update is silently discarded.
func (c *Client) pushStats(req types.StatsRequest, source string) {
	m := metrics.Get()

	result, err := c.hub.stats.GetStats(context.Background(), req.RecruiterID, req.Date)
	m.RecordStatsRequest(source, err)

	update := types.StatsUpdate{
		Type: "statsUpdate",
		Filter: types.FilterEcho{
			RecruiterID: req.RecruiterID,
			Date:        req.Date,
		},
		Seq:       req.Seq,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("stats computation failed")
		update.Error = genericComputeError
	} else {
		update.Stats = result
	}

	data, err := json.Marshal(update)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to marshal statsUpdate")
		return
	}

	if c.safeSend(data) {
		m.RecordUpdateDelivered()
	} else {
		// Session closed while the computation was in flight; dropping
		// the result is expected, not a failure
		m.RecordUpdateDiscarded()
		c.logger.Debug().Msg("statsUpdate discarded, session closed")
	}
}

// writePump pumps messages from the session handler to the websocket
// connection
//
// A goroutine running writePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start starts the session's read and write pumps
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// Close safely closes the session's send channel (idempotent)
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		defer func() {
			recover() // absorb panic if channel was already closed
		}()
		close(c.send)
	})
}

// safeSend attempts to send a message, recovering from panic if the
// channel is closed
func (c *Client) safeSend(data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()

	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}
