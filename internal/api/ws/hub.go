package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/georepute/backend/internal/api/handlers"
	"github.com/wonny/georepute/backend/internal/contracts"
	"github.com/wonny/georepute/backend/internal/metrics"
	"github.com/wonny/georepute/backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// Hub fans quote events out to each owner's websocket subscribers
// ⭐ SSOT: 실시간 견적 이벤트 전달은 이 허브에서만
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}

	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// NewHub creates an empty hub. m may be nil.
func NewHub(m *metrics.Metrics, log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 인증은 앞단 프록시가 헤더로 처리
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics: m,
		logger:  log.Component("ws_hub"),
	}
}

var _ contracts.QuoteEventPublisher = (*Hub)(nil)

// Publish sends event to every subscriber of userID.
// A subscriber whose buffer is full is dropped rather than blocking the caller.
func (h *Hub) Publish(userID string, event contracts.QuoteEvent) {
	if h.Subscribers(userID) == 0 {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode quote event")
		return
	}

	// send 채널은 쓰기 락 아래에서만 닫히므로 읽기 락 동안 전송은 안전
	var slow []*client
	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.WithField("user_id", userID).Warn("Slow subscriber dropped")
		h.remove(c)
	}
}

// ServeHTTP upgrades the request and streams the caller's quote events
// GET /ws/quotes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc, ok := handlers.RequestContextFrom(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	c := &client{userID: rc.UserID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

// Subscribers returns the live subscriber count for userID
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*client, 0)
	for _, subs := range h.clients {
		for c := range subs {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.remove(c)
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.mu.Unlock()

	h.metrics.SubscriberAdded()
	h.logger.WithField("user_id", c.userID).Debug("Subscriber connected")
}

func (h *Hub) remove(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients[c.userID], c)
		if len(h.clients[c.userID]) == 0 {
			delete(h.clients, c.userID)
		}
		close(c.send)
		h.mu.Unlock()

		h.metrics.SubscriberRemoved()
		h.logger.WithField("user_id", c.userID).Debug("Subscriber disconnected")
	})
}

// readLoop only services control frames. Clients never send data.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop drains c.send and keeps the connection alive with pings
func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.WithError(err).Debug("Websocket write failed")
				h.remove(c)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				h.remove(c)
				return
			}
		}
	}
}
