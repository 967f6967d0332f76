package notifications

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"rentloop/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per admin
	maxConnsPerAdmin = 4
	// Max total connections
	maxTotalConns = 1000
)

// FeedHub fans moderation events out to connected admin websocket clients.
type FeedHub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	shutdown   chan struct{}
}

// NewFeedHub creates a new FeedHub instance.
func NewFeedHub() *FeedHub {
	return &FeedHub{
		conns:    make(map[uint]map[*Client]struct{}),
		shutdown: make(chan struct{}),
	}
}

// Register adds a connection for the given admin. Returns the Client or an
// error if limits are exceeded.
func (h *FeedHub) Register(adminID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[adminID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[adminID] = m
	}

	if len(m) >= maxConnsPerAdmin {
		return nil, errors.New("admin connection limit reached")
	}

	client := NewClient(h, conn, adminID)
	m[client] = struct{}{}
	h.totalConns++
	observability.EventFeedConnections.Inc()

	return client, nil
}

// UnregisterClient removes a connection from the hub.
func (h *FeedHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.conns[client.AdminID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			observability.EventFeedConnections.Dec()
		}
		if len(m) == 0 {
			delete(h.conns, client.AdminID)
		}
	}
}

// BroadcastAll sends the message to every connected feed client.
func (h *FeedHub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// ConnectionCount returns the number of active feed connections.
func (h *FeedHub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring connects the Notifier to this hub: admin feed messages are
// broadcast to every connected moderator.
func (h *FeedHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(channel, payload string) {
		if channel == AdminEventsChannel {
			h.BroadcastAll(payload)
			return
		}
		if !strings.HasPrefix(channel, "notifications:user:") {
			log.Printf("invalid notification channel: %s", channel)
		}
		// Per-user notifications have no websocket surface yet; clients poll
		// their verification status over HTTP.
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *FeedHub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	h.mu.Lock()
	defer h.mu.Unlock()
	for adminID, clients := range h.conns {
		for client := range clients {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for admin %d: %v", adminID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for admin %d: %v", adminID, err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0

	return nil
}
