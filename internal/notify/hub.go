// Package notify stores per-user notifications and relays them over
// websockets to whichever connections the user has open.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"softwarepar.lat/internal/ids"
	"softwarepar.lat/internal/obs"
)

const writeWait = 5 * time.Second

// client wraps one websocket connection. The gorilla package allows a
// single concurrent writer per connection, so every outbound frame goes
// through write, which holds the connection's own lock.
type client struct {
	wmu  sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(n *Notification) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(n)
}

// Hub tracks live websocket connections keyed by user id and fans
// published notifications out to them. Persistence always happens; a user
// with no open connection simply reads the notification later.
type Hub struct {
	store Store

	mu    sync.Mutex
	conns map[string]map[*client]struct{}
}

func NewHub(store Store) *Hub {
	return &Hub{
		store: store,
		conns: make(map[string]map[*client]struct{}),
	}
}

// Attach registers a connection for the user and consumes its read side
// until the peer goes away. Blocks; callers run it per connection.
func (h *Hub) Attach(userID string, conn *websocket.Conn) {
	c := &client{conn: conn}
	h.mu.Lock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	defer h.detach(userID, c)
	for {
		// Inbound frames are ignored; the socket is push only.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) detach(userID string, c *client) {
	h.mu.Lock()
	if set, ok := h.conns[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
	h.mu.Unlock()
	c.conn.Close()
}

// Connections reports how many sockets the user currently has open.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}

// Publish stores a notification and pushes it to the user's open sockets.
// Socket failures only drop that socket; the stored notification survives.
func (h *Hub) Publish(ctx context.Context, userID, typ, title, message string) (*Notification, error) {
	n := &Notification{
		ID:        ids.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.Create(ctx, n); err != nil {
		return nil, err
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	delivered := false
	for _, c := range targets {
		if err := c.write(n); err != nil {
			h.detach(userID, c)
			continue
		}
		delivered = true
	}
	if delivered {
		obs.NotificationsPublished.WithLabelValues("live").Inc()
	} else {
		obs.NotificationsPublished.WithLabelValues("stored").Inc()
	}
	return n, nil
}

// Latest returns the user's newest notifications.
func (h *Hub) Latest(ctx context.Context, userID string) ([]*Notification, error) {
	return h.store.Latest(ctx, userID)
}

// MarkRead flips one notification owned by the user.
func (h *Hub) MarkRead(ctx context.Context, id, userID string) error {
	return h.store.MarkRead(ctx, id, userID)
}

// MarkAllRead flips all of the user's unread notifications.
func (h *Hub) MarkAllRead(ctx context.Context, userID string) error {
	return h.store.MarkAllRead(ctx, userID)
}
