// Package authchan maintains the persistent connection over which the
// clinical backend pushes permission-change notifications. The channel is an
// explicit state machine driven through injectable Dialer/Conn interfaces so
// reconnect and heartbeat behavior is testable without a network.
package authchan

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State names the channel's position in its lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	// StateClosed is terminal; only a fresh Connect after login leaves it.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Message is the JSON-tagged frame exchanged with the backend.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound and outbound message types.
const (
	MsgPermissionChanged = "PERMISSION_CHANGED"
	MsgHeartbeat         = "HEARTBEAT"
	MsgHeartbeatAck      = "HEARTBEAT_ACK"
)

// Conn abstracts the underlying socket for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer establishes a Conn carrying the session credential.
type Dialer interface {
	Dial(ctx context.Context, url, credential string) (Conn, error)
}

// Config holds the channel's fixed timing parameters.
type Config struct {
	URL                  string
	HeartbeatInterval    time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// Channel is the live authorization channel. Connection errors are surfaced
// through the logger and the state accessors only; they never propagate to
// callers.
type Channel struct {
	cfg    Config
	dialer Dialer
	logger zerolog.Logger

	// onChanged is invoked (on the read goroutine) for every
	// permission-change notification. The payload is deliberately ignored:
	// the owner re-fetches the tree rather than trusting pushed data.
	onChanged func()
	// onState, when set, observes every state transition.
	onState func(State)

	mu         sync.Mutex
	state      State
	conn       Conn
	credential string
	attempts   int
	heartbeat  *time.Ticker
	hbStop     chan struct{}
	reconnect  *time.Timer
}

// New returns a disconnected channel.
func New(cfg Config, dialer Dialer, onChanged func(), logger zerolog.Logger) *Channel {
	return &Channel{
		cfg:       cfg,
		dialer:    dialer,
		onChanged: onChanged,
		logger:    logger.With().Str("component", "authchan").Logger(),
		state:     StateDisconnected,
	}
}

// OnStateChange registers an observer for state transitions. Must be set
// before Connect.
func (c *Channel) OnStateChange(fn func(State)) {
	c.onState = fn
}

// State returns the channel's current state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the channel is currently established.
func (c *Channel) Connected() bool {
	return c.State() == StateConnected
}

func (c *Channel) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.onState != nil {
		go c.onState(s)
	}
}

// Connect establishes the channel with the given credential. A fresh Connect
// is a principal-establishing event: it resets the reconnect attempt counter
// and revives a previously closed channel.
func (c *Channel) Connect(credential string) {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return
	}
	c.credential = credential
	c.attempts = 0
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	go c.dial()
}

func (c *Channel) dial() {
	c.mu.Lock()
	credential := c.credential
	c.mu.Unlock()

	conn, err := c.dialer.Dial(context.Background(), c.cfg.URL, credential)

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.logger.Warn().Err(err).Int("attempt", c.attempts).Msg("dial failed")
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	c.conn = conn
	c.attempts = 0
	c.setStateLocked(StateConnected)
	c.startHeartbeatLocked()
	c.mu.Unlock()

	c.logger.Info().Msg("connected")
	go c.readLoop(conn)
}

// readLoop consumes inbound frames until the connection drops.
func (c *Channel) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // ignore malformed frames
		}

		switch msg.Type {
		case MsgPermissionChanged:
			c.logger.Info().Msg("permission change notified")
			if c.onChanged != nil {
				c.onChanged()
			}
		case MsgHeartbeatAck:
			// Liveness confirmed; nothing to record.
		}
	}
}

// handleClose reacts to an unexpected disconnect: bounded, fixed-delay
// reconnects, then silence. The application keeps running on the last-known
// permission tree either way.
func (c *Channel) handleClose(conn Conn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != conn {
		return // a newer connection has replaced this one
	}
	c.stopHeartbeatLocked()
	c.conn = nil
	conn.Close()

	if c.state == StateClosed {
		return
	}
	c.logger.Warn().Err(err).Msg("connection lost")
	c.scheduleReconnectLocked()
}

func (c *Channel) scheduleReconnectLocked() {
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.setStateLocked(StateDisconnected)
		c.logger.Warn().
			Int("attempts", c.attempts).
			Msg("reconnect attempts exhausted; staying disconnected")
		return
	}
	c.attempts++
	c.setStateLocked(StateConnecting)
	c.reconnect = time.AfterFunc(c.cfg.ReconnectDelay, c.dial)
}

func (c *Channel) startHeartbeatLocked() {
	c.stopHeartbeatLocked()
	if c.cfg.HeartbeatInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	stop := make(chan struct{})
	c.heartbeat = ticker
	c.hbStop = stop
	conn := c.conn

	go func() {
		frame, _ := json.Marshal(Message{Type: MsgHeartbeat})
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := conn.WriteMessage(textMessage, frame); err != nil {
					// A failed write exposes a silent disconnect; closing
					// the conn unblocks the read loop, which reconnects.
					conn.Close()
					return
				}
			}
		}
	}()
}

func (c *Channel) stopHeartbeatLocked() {
	if c.heartbeat != nil {
		c.heartbeat.Stop()
		c.heartbeat = nil
	}
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}

// Teardown synchronously cancels the heartbeat and any pending reconnect,
// closes the socket, and parks the channel in the terminal Closed state.
// Used on logout and session expiry; safe to call repeatedly.
func (c *Channel) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setStateLocked(StateClosed)
	c.stopHeartbeatLocked()
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.credential = ""
}
