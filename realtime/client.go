package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type outcome int

const (
	delivered outcome = iota
	duplicate
	bufferFull
	closed
)

// Client is one websocket connection. rooms is guarded by the hub's lock;
// everything else by mu.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	limiter *rate.Limiter
	rooms   map[string]struct{}

	mu       sync.Mutex
	send     chan []byte
	isClosed bool
	seen     map[string]struct{}
	seenFIFO []string
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     h,
		conn:    conn,
		limiter: rate.NewLimiter(h.opts.InboundRate, h.opts.InboundBurst),
		rooms:   make(map[string]struct{}),
		send:    make(chan []byte, h.opts.SendBuffer),
		seen:    make(map[string]struct{}),
	}
}

// deliver queues frame without blocking. A keyed frame already seen by this
// socket is dropped.
func (c *Client) deliver(key string, frame []byte) outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return closed
	}
	if key != "" {
		if _, ok := c.seen[key]; ok {
			return duplicate
		}
	}
	select {
	case c.send <- frame:
	default:
		return bufferFull
	}
	if key != "" {
		c.remember(key)
	}
	return delivered
}

func (c *Client) remember(key string) {
	c.seen[key] = struct{}{}
	c.seenFIFO = append(c.seenFIFO, key)
	if len(c.seenFIFO) > c.hub.opts.DedupeWindow {
		delete(c.seen, c.seenFIFO[0])
		c.seenFIFO = c.seenFIFO[1:]
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return
	}
	c.isClosed = true
	close(c.send)
}

// reply queues a control frame to this socket only.
func (c *Client) reply(event string, payload any) {
	frame, err := encode(event, payload)
	if err != nil {
		return
	}
	c.deliver("", frame)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.close()
		c.conn.Close()
		c.hub.metrics.Connections.Dec()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in Frame
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Info("Socket closed unexpectedly", zap.Error(err))
			}
			return
		}
		if !c.limiter.Allow() {
			c.reply(EventError, "rate limit exceeded")
			continue
		}
		c.handle(in)
	}
}

func (c *Client) handle(in Frame) {
	var id string
	if err := json.Unmarshal(in.Data, &id); err != nil || id == "" {
		c.reply(EventError, in.Event+" requires an id")
		return
	}

	switch in.Event {
	case EventJoinOutlet:
		c.joinRoom(OutletRoom(id))
	case EventJoinUser:
		c.joinRoom(UserRoom(id))
	case EventLeaveOutlet:
		c.leaveRoom(OutletRoom(id))
	case EventLeaveUser:
		c.leaveRoom(UserRoom(id))
	default:
		c.reply(EventError, "unknown event "+in.Event)
	}
}

func (c *Client) joinRoom(room string) {
	c.hub.join(c, room)
	c.hub.log.Debug("Socket joined room", zap.String("room", room))
	c.reply(EventJoined, room)
}

func (c *Client) leaveRoom(room string) {
	c.hub.leave(c, room)
	c.reply(EventLeft, room)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
