// Package wsbridge pushes session events to connected browser tabs so the
// rendered navigation reconciles without a reload: a menu.changed event when
// the permission tree is republished, and session.warning / session.expired
// as the clock runs down.
package wsbridge

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Event is a frame pushed to browser clients.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Event types.
const (
	EventMenuChanged    = "menu.changed"
	EventSessionWarning = "session.warning"
	EventSessionExpired = "session.expired"
)

// Client is a single connected browser tab.
type Client struct {
	ID   string
	Send chan []byte
}

// Bridge fans session events out to every connected tab.
type Bridge struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	// onCountChange, when set, observes the client count after every
	// register and unregister. Set before serving.
	onCountChange func(int)
}

// OnCountChange installs the client-count observer.
func (b *Bridge) OnCountChange(fn func(int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onCountChange = fn
}

// New returns an empty Bridge.
func New(logger zerolog.Logger) *Bridge {
	return &Bridge{
		logger:  logger.With().Str("component", "wsbridge").Logger(),
		clients: make(map[*Client]struct{}),
	}
}

// Register adds a client.
func (b *Bridge) Register(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c] = struct{}{}
	if b.onCountChange != nil {
		b.onCountChange(len(b.clients))
	}
}

// Unregister removes a client and closes its send channel.
func (b *Bridge) Unregister(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; !ok {
		return
	}
	delete(b.clients, c)
	close(c.Send)
	if b.onCountChange != nil {
		b.onCountChange(len(b.clients))
	}
}

// Broadcast sends an event to every connected tab. Slow clients are skipped
// rather than blocking the sender.
func (b *Bridge) Broadcast(eventType string, data json.RawMessage) {
	frame, err := json.Marshal(Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to marshal event")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		select {
		case c.Send <- frame:
		default:
		}
	}
}

// ClientCount returns the number of connected tabs.
func (b *Bridge) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ---------------------------------------------------------------------------
// Echo handler
// ---------------------------------------------------------------------------

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the echo layer.
	},
}

// Handler upgrades browser connections and pumps bridge events to them.
type Handler struct {
	bridge *Bridge
}

// NewHandler returns a Handler bound to the bridge.
func NewHandler(bridge *Bridge) *Handler {
	return &Handler{bridge: bridge}
}

// RegisterRoutes registers the bridge endpoint on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect upgrades the connection and starts the pumps. The guard
// middleware has already established that a principal exists.
func (h *Handler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 64),
	}
	h.bridge.Register(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)
	return nil
}

// readPump drains inbound frames until the tab disconnects. The browser
// sends nothing meaningful; reading is only how we learn about the close.
func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.bridge.Unregister(client)
		ws.Close()
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()
	for frame := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, frame); err != nil {
			return
		}
	}
}
