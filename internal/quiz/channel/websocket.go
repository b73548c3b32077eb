package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// WebSocketConfig holds configuration for the WebSocket channel adapter.
type WebSocketConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	MaxMessageSize   int64
	SendBuffer       int
}

// DefaultWebSocketConfig returns default WebSocket adapter configuration.
func DefaultWebSocketConfig(url string) WebSocketConfig {
	return WebSocketConfig{
		URL:              url,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		MaxMessageSize:   64 * 1024,
		SendBuffer:       256,
	}
}

// envelope is the wire format for one named event: {"event": ..., "payload": ...}.
type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocket is a Channel backed by a single long-lived WebSocket connection.
// Inbound events are dispatched sequentially on one goroutine; handlers must
// not call On/Off/Close from inside a dispatch.
type WebSocket struct {
	conn  *websocket.Conn
	cfg   WebSocketConfig
	clock clockwork.Clock

	mu       sync.RWMutex
	handlers map[string]Handler

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// DialWebSocket connects to the game server and starts the read/write pumps.
func DialWebSocket(ctx context.Context, cfg WebSocketConfig) (*WebSocket, error) {
	return dialWebSocket(ctx, cfg, clockwork.NewRealClock())
}

func dialWebSocket(ctx context.Context, cfg WebSocketConfig, clock clockwork.Clock) (*WebSocket, error) {
	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	ws := &WebSocket{
		conn:     conn,
		cfg:      cfg,
		clock:    clock,
		handlers: make(map[string]Handler),
		send:     make(chan []byte, cfg.SendBuffer),
		done:     make(chan struct{}),
	}

	go ws.writePump()
	go ws.readPump()

	log.Info().Str("url", cfg.URL).Msg("WebSocket channel connected")
	return ws, nil
}

func (ws *WebSocket) On(event string, h Handler) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.handlers[event] = h
}

func (ws *WebSocket) Off(event string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.handlers, event)
}

// Emit queues an outbound event. It fails once the channel is closed or when
// the send buffer is full (a slow connection must not block the caller).
func (ws *WebSocket) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	frame, err := json.Marshal(envelope{Event: event, Payload: data})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", event, err)
	}

	select {
	case <-ws.done:
		return fmt.Errorf("emit %s: channel closed", event)
	default:
	}

	select {
	case ws.send <- frame:
		return nil
	default:
		return fmt.Errorf("emit %s: send buffer full", event)
	}
}

// Close shuts down both pumps and the underlying connection. Safe to call
// more than once. The close frame itself goes out through the write pump,
// which owns all writes to the connection.
func (ws *WebSocket) Close() error {
	ws.closeOnce.Do(func() {
		close(ws.done)
	})
	return nil
}

// readPump reads frames and dispatches them to registered handlers. Holding
// the read lock across the handler call means Off does not return while that
// event's handler is mid-flight.
func (ws *WebSocket) readPump() {
	defer ws.Close()

	ws.conn.SetReadLimit(ws.cfg.MaxMessageSize)
	ws.conn.SetReadDeadline(time.Now().Add(ws.cfg.ReadTimeout))
	ws.conn.SetPongHandler(func(string) error {
		ws.conn.SetReadDeadline(time.Now().Add(ws.cfg.ReadTimeout))
		return nil
	})

	for {
		_, frame, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Msg("unexpected WebSocket close")
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}

		ws.mu.RLock()
		h := ws.handlers[env.Event]
		if h != nil {
			h(env.Payload)
		} else {
			log.Debug().Str("event", env.Event).Msg("no handler for event")
		}
		ws.mu.RUnlock()

		ws.conn.SetReadDeadline(time.Now().Add(ws.cfg.ReadTimeout))
	}
}

// writePump serializes all writes to the connection and keeps it alive with
// periodic pings. It is the only goroutine that writes, including the final
// close frame, and it closes the connection on the way out (which also
// unblocks the read pump).
func (ws *WebSocket) writePump() {
	ticker := ws.clock.NewTicker(ws.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		ws.Close()
		ws.conn.Close()
	}()

	for {
		select {
		case <-ws.done:
			ws.conn.SetWriteDeadline(time.Now().Add(ws.cfg.WriteTimeout))
			ws.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-ws.send:
			ws.conn.SetWriteDeadline(time.Now().Add(ws.cfg.WriteTimeout))
			if err := ws.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Msg("WebSocket write failed")
				return
			}
		case <-ticker.Chan():
			ws.conn.SetWriteDeadline(time.Now().Add(ws.cfg.WriteTimeout))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("WebSocket ping failed")
				return
			}
		}
	}
}
