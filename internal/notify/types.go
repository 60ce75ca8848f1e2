package notify

import (
	"errors"
	"time"
)

// Notification kinds pushed to users. The type string doubles as the
// client-side routing key.
const (
	TypeInfo       = "info"
	TypeProject    = "project"
	TypeTicket     = "ticket"
	TypePayment    = "payment"
	TypeCommission = "commission"
)

// Notification is a per-user message, stored and, when the user has a live
// websocket, pushed immediately.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

var ErrNotFound = errors.New("notify: not found")
