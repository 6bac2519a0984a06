package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"tonflip/domain/entities"
	"tonflip/infrastructure/observability"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = (feedPongWait * 9) / 10
	feedSendBuffer = 16
)

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// FeedHub fans settled bets out to WebSocket subscribers of the live plays view.
// Clients that fall behind are disconnected.
type FeedHub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*feedClient]struct{}
	closed  bool
}

// NewFeedHub creates a hub accepting connections from allowedOrigins ("*" allows any)
func NewFeedHub(allowedOrigins []string) *FeedHub {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return &FeedHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
		clients: make(map[*feedClient]struct{}),
	}
}

// BroadcastBet queues bet for every connected client
func (h *FeedHub) BroadcastBet(bet *entities.Bet) {
	payload, err := json.Marshal(newBetResponse(bet))
	if err != nil {
		log.WithError(err).Error("Failed to encode feed bet")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.removeLocked(client)
		}
	}
}

// ServeHTTP upgrades the request and streams bets until the client goes away
func (h *FeedHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("Feed upgrade failed")
		return
	}

	client := &feedClient{conn: conn, send: make(chan []byte, feedSendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[client] = struct{}{}
	observability.SetFeedClients(len(h.clients))
	h.mu.Unlock()

	go h.writePump(client)
	h.readPump(client)
}

// ClientCount returns the number of connected clients
func (h *FeedHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *FeedHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for client := range h.clients {
		h.removeLocked(client)
	}
}

func (h *FeedHub) remove(client *feedClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *FeedHub) removeLocked(client *feedClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	observability.SetFeedClients(len(h.clients))
}

// readPump only tracks liveness, the feed is one-way
func (h *FeedHub) readPump(client *feedClient) {
	defer func() {
		h.remove(client)
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *FeedHub) writePump(client *feedClient) {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
