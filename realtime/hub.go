package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/smartfeastt/smartfeast-backend/metrics"
)

// Options tunes per-socket resources.
type Options struct {
	// SendBuffer is the number of frames queued per socket before events
	// are dropped for it.
	SendBuffer int
	// DedupeWindow is how many event keys a socket remembers.
	DedupeWindow int
	// InboundRate and InboundBurst bound client to server messages.
	InboundRate  rate.Limit
	InboundBurst int
}

func DefaultOptions() Options {
	return Options{
		SendBuffer:   64,
		DedupeWindow: 512,
		InboundRate:  rate.Limit(10),
		InboundBurst: 20,
	}
}

// Hub tracks room membership. Membership is only added to and removed from;
// publishing never blocks on a slow socket.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients map[*Client]struct{}
	closed  bool

	opts     Options
	log      *zap.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

func NewHub(log *zap.Logger, m *metrics.Metrics, opts Options) *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
		opts:    opts,
		log:     log.With(zap.String("component", "realtime")),
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Publish queues ev on every socket in room.
func (h *Hub) Publish(room string, ev Event) {
	frame, err := encode(ev.Name, ev.Payload)
	if err != nil {
		h.log.Error("Failed to encode event", zap.String("event", ev.Name), zap.Error(err))
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		switch c.deliver(ev.Key, frame) {
		case delivered:
			h.metrics.EventsPublished.WithLabelValues(ev.Name).Inc()
		case duplicate:
			h.metrics.EventsDropped.WithLabelValues(ev.Name, "duplicate").Inc()
		case bufferFull:
			h.metrics.EventsDropped.WithLabelValues(ev.Name, "buffer_full").Inc()
			h.log.Warn("Dropped event for slow socket",
				zap.String("event", ev.Name), zap.String("room", room))
		}
	}
	h.log.Debug("Published event",
		zap.String("event", ev.Name), zap.String("room", room), zap.Int("members", len(members)))
}

// Members returns the number of sockets in room.
func (h *Hub) Members(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// remove drops c from every room it joined.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c)
}

// register tracks c until it disconnects. It fails once the hub is closed.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// Close sends a close frame to every socket and refuses new ones. Each
// socket's goroutines exit once its connection is torn down.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.log.Info("Realtime hub closed", zap.Int("sockets", len(clients)))
}

// ServeHTTP upgrades the request to a websocket and runs it until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Info("Websocket upgrade failed", zap.Error(err))
		return
	}
	c := newClient(h, conn)
	if !h.register(c) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.metrics.Connections.Inc()
	h.log.Debug("Socket connected", zap.String("remote", r.RemoteAddr))

	go c.writePump()
	go c.readPump()
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)
