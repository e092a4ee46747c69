// Package realtime provides a WebSocket channel for interactive interaction
// checks. Each inbound message is an independent request and each response an
// independent reply, so one connection can serve any number of checks.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/medtrack/medtrack/internal/domain/interaction"
)

const (
	// MessageTypeCheck is the only request the channel understands.
	MessageTypeCheck = "check_interactions"
	// MessageTypeResult carries a successful check response.
	MessageTypeResult = "interactions_result"
	// MessageTypeError carries a per-request failure. The connection stays
	// open after an error reply.
	MessageTypeError = "error"
)

// ClientMessage is an inbound request from a WebSocket client.
type ClientMessage struct {
	Type        string  `json:"type"`
	MedicineIDs []int64 `json:"medicineIds"`
}

// ServerMessage is an outbound reply to a WebSocket client.
type ServerMessage struct {
	Type         string                `json:"type"`
	Interactions []*interaction.Result `json:"interactions"`
	Message      string                `json:"message,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
}

// Resolver answers combination checks. *interaction.Service satisfies it.
type Resolver interface {
	CheckCombination(ctx context.Context, ids []int64) ([]*interaction.Result, error)
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single WebSocket connection.
type Client struct {
	ID   string
	Send chan []byte
	conn Conn

	mu     sync.Mutex
	closed bool
}

// enqueue queues a reply for the write pump, waiting up to timeout for room
// in the buffer. It reports false when the client is gone or not draining.
func (c *Client) enqueue(data []byte, timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Channel tracks connected clients and dispatches their check requests to
// the resolver. All registry operations are thread-safe via sync.RWMutex.
type Channel struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	resolver Resolver
}

// NewChannel creates a Channel backed by the given resolver.
func NewChannel(resolver Resolver) *Channel {
	return &Channel{
		clients:  make(map[*Client]struct{}),
		resolver: resolver,
	}
}

// Register adds a client to the channel.
func (ch *Channel) Register(client *Client) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.clients[client] = struct{}{}
}

// Unregister removes a client and closes its Send channel.
func (ch *Channel) Unregister(client *Client) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if _, ok := ch.clients[client]; !ok {
		return
	}
	delete(ch.clients, client)

	client.mu.Lock()
	if !client.closed {
		client.closed = true
		close(client.Send)
	}
	client.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (ch *Channel) ClientCount() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.clients)
}

// ProcessMessage handles one inbound message and queues the reply on the
// client's Send channel. Bad requests produce an error reply, never a close.
func (ch *Channel) ProcessMessage(ctx context.Context, client *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		ch.send(client, errorMessage("invalid message"))
		return
	}

	if msg.Type != MessageTypeCheck {
		ch.send(client, errorMessage("unknown message type"))
		return
	}
	if len(msg.MedicineIDs) < 2 {
		ch.send(client, errorMessage(interaction.ErrTooFewMedicines.Error()))
		return
	}

	results, err := ch.resolver.CheckCombination(ctx, msg.MedicineIDs)
	if err != nil {
		if errors.Is(err, interaction.ErrTooFewMedicines) {
			ch.send(client, errorMessage(err.Error()))
			return
		}
		log.Error().Err(err).Str("client_id", client.ID).Msg("realtime check failed")
		ch.send(client, errorMessage("check failed"))
		return
	}
	if results == nil {
		results = []*interaction.Result{}
	}

	ch.send(client, ServerMessage{
		Type:         MessageTypeResult,
		Interactions: results,
		Timestamp:    time.Now().UTC(),
	})
}

// sendTimeout bounds how long a reply waits for buffer room before the
// client is judged dead. Overridden in tests.
var sendTimeout = 5 * time.Second

func (ch *Channel) send(client *Client, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("realtime: failed to marshal reply")
		return
	}
	if !client.enqueue(data, sendTimeout) {
		// Every request gets exactly one reply. A client that stopped
		// draining would lose this one, so drop the connection instead.
		log.Warn().Str("client_id", client.ID).Msg("realtime: client not draining, closing connection")
		if client.conn != nil {
			client.conn.Close()
		}
	}
}

func errorMessage(text string) ServerMessage {
	return ServerMessage{
		Type:      MessageTypeError,
		Message:   text,
		Timestamp: time.Now().UTC(),
	}
}

// ---------------------------------------------------------------------------
// Handler - Echo HTTP handler for WebSocket connections
// ---------------------------------------------------------------------------

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Handler handles HTTP-to-WebSocket upgrades and message routing.
type Handler struct {
	channel *Channel
}

// NewHandler creates a new handler bound to the given Channel.
func NewHandler(channel *Channel) *Handler {
	return &Handler{channel: channel}
}

// RegisterRoutes registers the WebSocket endpoint on the provided Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades an HTTP connection to WebSocket, registers the
// client with the channel, and starts read/write pumps.
func (h *Handler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
		conn: &gorillaConnAdapter{ws},
	}

	h.channel.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

// readPump reads messages from the WebSocket connection and processes each
// one as an independent check request. The HTTP request context is canceled
// as soon as HandleConnect returns, so checks run under a context tied to
// the connection's own lifetime instead.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.channel.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}
		h.channel.ProcessMessage(ctx, client, message)
	}
}

// writePump writes messages from the Send channel to the WebSocket connection.
func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy the Conn interface.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}
