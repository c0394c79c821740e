package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

// ErrHubClosed is returned when a connection arrives after Close.
var ErrHubClosed = errors.New("hub closed")

// Frame types sent to websocket observers.
const (
	FrameSnapshot = "snapshot"
	FrameEvent    = "event"
)

// Frame is one websocket message. A connection always receives a snapshot frame first and then
// only events newer than that snapshot.
type Frame struct {
	Type     string           `json:"type"`
	Snapshot *engine.Snapshot `json:"snapshot,omitempty"`
	Event    *events.Event    `json:"event,omitempty"`
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// Hub fans draft events out to websocket observers, grouped by draft. It is a broadcast sink:
// the dispatcher calls Broadcast from its single delivery goroutine.
type Hub struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]map[*Connection]struct{}
	closed bool

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	UserID  string
	DraftID uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	hub     *Hub

	// after is the snapshot sequence; older events are already reflected in the snapshot.
	after uint64

	ConnectedAt time.Time
}

// NewHub creates a websocket hub.
func NewHub(config ConnectionConfig) *Hub {
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultConnectionConfig().SendBuffer
	}
	return &Hub{
		drafts: make(map[uuid.UUID]map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// Serve upgrades the request and registers the connection for draftID. snapshot is taken while
// broadcasts for the hub are held back, so no event can slip in between the snapshot and the
// registration.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string, draftID uuid.UUID,
	snapshot func(context.Context) (engine.Snapshot, error)) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.NewString(),
		UserID:      userID,
		DraftID:     draftID,
		Conn:        conn,
		Send:        make(chan []byte, h.config.SendBuffer),
		hub:         h,
		ConnectedAt: time.Now(),
	}

	if err := h.register(r.Context(), c, snapshot); err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.config.WriteTimeout))
		conn.Close()
		return err
	}

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", userID).
		Str("draft_id", draftID.String()).
		Msg("WebSocket connection established")
	return nil
}

func (h *Hub) register(ctx context.Context, c *Connection, snapshot func(context.Context) (engine.Snapshot, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}

	snap, err := snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	data, err := json.Marshal(Frame{Type: FrameSnapshot, Snapshot: &snap})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	c.after = snap.Sequence
	c.Send <- data

	if h.drafts[c.DraftID] == nil {
		h.drafts[c.DraftID] = make(map[*Connection]struct{})
	}
	h.drafts[c.DraftID][c] = struct{}{}

	log.Debug().
		Str("connection_id", c.ID).
		Str("draft_id", c.DraftID.String()).
		Int("total_connections", len(h.drafts[c.DraftID])).
		Msg("connection registered")
	return nil
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Connection) {
	conns, ok := h.drafts[c.DraftID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.drafts, c.DraftID)
	}

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", c.UserID).
		Str("draft_id", c.DraftID.String()).
		Msg("connection unregistered")
}

func (h *Hub) Name() string { return "websocket" }

// Broadcast sends the event to every observer of its draft. Observers whose send buffer is full
// are disconnected rather than waited on.
func (h *Hub) Broadcast(_ context.Context, event events.Event) error {
	h.mu.RLock()
	conns := h.drafts[event.DraftID]
	targets := make([]*Connection, 0, len(conns))
	for c := range conns {
		if event.Sequence > c.after {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return nil
	}

	data, err := json.Marshal(Frame{Type: FrameEvent, Event: &event})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var slow []*Connection
	h.mu.RLock()
	for _, c := range targets {
		if _, live := h.drafts[event.DraftID][c]; !live {
			continue
		}
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warn().
			Str("connection_id", c.ID).
			Str("user_id", c.UserID).
			Msg("connection send buffer full, closing connection")
		h.unregister(c)
	}

	log.Debug().
		Str("event_type", string(event.Type)).
		Str("draft_id", event.DraftID.String()).
		Int("connections", len(targets)).
		Msg("event broadcasted")
	return nil
}

// Stats describes the connected observers.
type Stats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveDrafts     int            `json:"active_drafts"`
	Drafts           map[string]int `json:"draft_connections"`
}

// Stats returns statistics about active connections
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{ActiveDrafts: len(h.drafts), Drafts: make(map[string]int, len(h.drafts))}
	for draftID, conns := range h.drafts {
		stats.TotalConnections += len(conns)
		stats.Drafts[draftID.String()] = len(conns)
	}
	return stats
}

// Close disconnects every observer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, conns := range h.drafts {
		for c := range conns {
			h.removeLocked(c)
		}
	}
}

// writePump owns writes to the socket. It exits when Send is closed by the hub.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				c.hub.unregister(c)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				c.hub.unregister(c)
				return
			}
		}
	}
}

// readPump only keeps the read deadline alive; observers do not send commands over the socket.
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		log.Debug().
			Str("connection_id", c.ID).
			Str("user_id", c.UserID).
			Int("bytes", len(message)).
			Msg("ignoring client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}
