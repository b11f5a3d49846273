package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/pkg/logger"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 512
	clientBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// TickHub fans tick summaries out to websocket clients. Slow clients lose
// messages rather than stall the broadcast.
type TickHub struct {
	log *logger.Logger

	mu      sync.RWMutex
	clients map[*streamClient]struct{}

	dropped atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
}

// NewTickHub creates an empty hub.
func NewTickHub(log *logger.Logger) *TickHub {
	if log == nil {
		log = logger.NewNop()
	}
	return &TickHub{
		log:     log,
		clients: make(map[*streamClient]struct{}),
		closed:  make(chan struct{}),
	}
}

// Run broadcasts every summary received on events until the channel closes
// or the hub is closed.
func (h *TickHub) Run(events <-chan market.TickSummary) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			b, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("encode tick summary", logger.Error(err))
				continue
			}
			h.Broadcast(b)
		case <-h.closed:
			return
		}
	}
}

// Broadcast queues msg for every connected client.
func (h *TickHub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// ServeWS upgrades the request and streams tick summaries to the client.
func (h *TickHub) ServeWS(c echo.Context) error {
	select {
	case <-h.closed:
		return echo.NewHTTPError(http.StatusServiceUnavailable, "tick stream closed")
	default:
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already replied with an error status.
		h.log.Warn("websocket upgrade failed", logger.Error(err))
		return nil
	}

	client := &streamClient{conn: conn, send: make(chan []byte, clientBuffer)}
	h.register(client)
	h.log.Debug("stream client connected", logger.String("remote", conn.RemoteAddr().String()))

	go h.writePump(client)
	go h.readPump(client)
	return nil
}

func (h *TickHub) register(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// unregister removes c and closes its queue; writePump then closes the conn.
func (h *TickHub) unregister(c *streamClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump only services control frames; client messages are discarded.
func (h *TickHub) readPump(c *streamClient) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *TickHub) writePump(c *streamClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Clients returns the number of connected clients.
func (h *TickHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns the number of messages dropped for slow clients.
func (h *TickHub) Dropped() int64 {
	return h.dropped.Load()
}

// Close disconnects every client and stops Run.
func (h *TickHub) Close() {
	h.closeOnce.Do(func() {
		close(h.closed)

		h.mu.Lock()
		defer h.mu.Unlock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	})
}
