package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/wifiprov/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Messages queued per client before it is dropped
	sendBuffer = 16
)

// hub fans messages out to connected WebSocket clients
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	wg      sync.WaitGroup
}

type client struct {
	conn       *websocket.Conn
	send       chan Message
	remoteAddr string
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

// serve runs a client until it disconnects. The message built by first is
// the client's first message; no broadcast can slip in between building it
// and registering the client.
func (h *hub) serve(conn *websocket.Conn, first func() Message) {
	c := &client{
		conn:       conn,
		send:       make(chan Message, sendBuffer),
		remoteAddr: conn.RemoteAddr().String(),
	}

	if !h.register(c, first) {
		_ = conn.Close()
		return
	}
	logging.Info("Event stream client connected", zap.String("remote_addr", c.remoteAddr))

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()

	c.readPump()
	h.unregister(c)
	logging.Info("Event stream client disconnected", zap.String("remote_addr", c.remoteAddr))
}

func (h *hub) register(c *client, first func() Message) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	c.send <- first()
	h.clients[c] = struct{}{}
	return true
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// broadcast queues msg for every client without blocking
func (h *hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			logging.Warn("Dropping slow event stream client", zap.String("remote_addr", c.remoteAddr))
			h.removeLocked(c)
		}
	}
}

// count returns the number of connected clients
func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// close disconnects every client and waits for their writers to finish
func (h *hub) close(ctx context.Context) {
	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Debug("All event stream clients closed")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, event stream clients still open")
	}
}

// writePump is the only writer on the connection
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Debug("Event stream write failed",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and tracks liveness
func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("Event stream read error",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
	}
}
