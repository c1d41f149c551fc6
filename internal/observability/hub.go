// Package observability fans out request lifecycle events to connected
// websocket subscribers, for an operator dashboard watching the gateway
// live. It is a side channel: a slow or absent subscriber never blocks a
// request.
package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halcyon-ai/relaygw/internal/logging"
)

// Event is one broadcast frame, tagged with one of the Event* types below.
type Event struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Model     string `json:"model,omitempty"`
	Detail    string `json:"detail,omitempty"`
	At        int64  `json:"at"`
}

const (
	EventRequestStarted  = "request_started"
	EventRequestFinished = "request_finished"
	EventQuotaRefreshed  = "quota_refreshed"
)

type subscriber struct {
	id   string
	send chan []byte
}

// Hub broadcasts Events to every currently-connected subscriber.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber

	register   chan *subscriber
	unregister chan *subscriber

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		register:    make(chan *subscriber, 1),
		unregister:  make(chan *subscriber, 1),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run drains the register/unregister channels until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub.id] = sub
			h.mu.Unlock()
		case sub := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.subscribers[sub.id]; ok && existing == sub {
				close(sub.send)
				delete(h.subscribers, sub.id)
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast fans out ev to every connected subscriber. A subscriber whose
// send buffer is full is skipped rather than blocking the caller.
func (h *Hub) Broadcast(ev Event) {
	ev.At = time.Now().Unix()
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		select {
		case sub.send <- data:
		default:
			logging.Warnf("observability: dropping event for slow subscriber %s", sub.id)
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeWS upgrades r to a websocket and streams broadcast Events to it
// until the connection closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, id string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warnf("observability: upgrade failed: %v", err)
		return
	}

	sub := &subscriber{id: id, send: make(chan []byte, 64)}
	h.register <- sub

	go h.writePump(conn, sub)
	h.readPump(conn, sub)
}

func (h *Hub) readPump(conn *websocket.Conn, sub *subscriber) {
	defer func() { h.unregister <- sub }()
	conn.SetReadLimit(4096)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
