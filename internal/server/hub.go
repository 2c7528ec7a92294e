package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ugur10/go-bookshelf/internal/books"
	"github.com/ugur10/go-bookshelf/internal/metrics"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Snapshot is the full list as sent to clients.
type Snapshot struct {
	Books    []books.Book `json:"books"`
	Revision uint64       `json:"revision"`
}

type subscriber struct {
	send chan Snapshot
}

// Hub fans committed snapshots out to websocket clients. Broadcast never
// blocks: a client that falls behind loses its oldest pending snapshot,
// which is harmless because every snapshot is complete.
type Hub struct {
	mu      sync.Mutex
	clients map[*subscriber]struct{}
	buffer  int
	closed  bool

	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewHub returns a hub keeping up to buffer pending snapshots per client.
// m may be nil.
func NewHub(buffer int, logger *slog.Logger, m *metrics.Collector) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		clients: make(map[*subscriber]struct{}),
		buffer:  buffer,
		logger:  logger,
		metrics: m,
	}
}

// Broadcast is a books.MemoryRepository observer.
func (h *Hub) Broadcast(snapshot []books.Book, revision uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Snapshot{Books: snapshot, Revision: revision}
	for s := range h.clients {
		s.offer(msg)
	}
}

// offer queues msg, discarding the oldest pending snapshot when full. Only
// the hub sends on s.send, and it does so under its lock.
func (s *subscriber) offer(msg Snapshot) {
	for {
		select {
		case s.send <- msg:
			return
		default:
		}
		select {
		case <-s.send:
		default:
		}
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.clients {
		delete(h.clients, s)
		close(s.send)
	}
	h.setGauge()
}

func (h *Hub) register() (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, false
	}
	s := &subscriber{send: make(chan Snapshot, h.buffer)}
	h.clients[s] = struct{}{}
	h.setGauge()
	return s, true
}

func (h *Hub) unregister(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[s]; !ok {
		return
	}
	delete(h.clients, s)
	close(s.send)
	h.setGauge()
}

func (h *Hub) setGauge() {
	if h.metrics != nil {
		h.metrics.Subscribers.Set(float64(len(h.clients)))
	}
}

// ServeWS upgrades the request and streams snapshots until the client goes
// away. The current list is sent first.
func (h *Hub) ServeWS(repo books.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer ws.Close()

		// Register before reading the list so no change can fall in between.
		sub, ok := h.register()
		if !ok {
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			return
		}
		defer h.unregister(sub)

		list, revision, err := repo.List(c.Request.Context())
		if err != nil {
			h.logger.Error("list books for websocket", "error", err)
			return
		}
		if err := writeSnapshot(ws, Snapshot{Books: list, Revision: revision}); err != nil {
			return
		}
		h.logger.Info("change feed client connected", "remote", c.ClientIP(), "revision", revision)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		last := revision
		for {
			select {
			case msg, ok := <-sub.send:
				if !ok {
					_ = ws.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
						time.Now().Add(writeWait))
					return
				}
				if msg.Revision <= last {
					continue
				}
				if err := writeSnapshot(ws, msg); err != nil {
					h.logger.Info("change feed client dropped", "error", err)
					return
				}
				last = msg.Revision
			case <-done:
				h.logger.Info("change feed client disconnected", "remote", c.ClientIP())
				return
			}
		}
	}
}

func writeSnapshot(ws *websocket.Conn, s Snapshot) error {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteJSON(s)
}
