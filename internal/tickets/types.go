package tickets

import (
	"errors"
	"time"
)

// Ticket status moves forward only: open, in_progress, resolved, closed.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Ticket is a support request raised by a user, optionally tied to a project.
type Ticket struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProjectID   string    `json:"project_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Response is one message in a ticket's thread. FromSupport marks staff
// replies so the client UI can distinguish them.
type Response struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	UserID      string    `json:"user_id"`
	Message     string    `json:"message"`
	FromSupport bool      `json:"from_support"`
	CreatedAt   time.Time `json:"created_at"`
}

var (
	ErrNotFound          = errors.New("tickets: not found")
	ErrInvalidTransition = errors.New("tickets: invalid status transition")
	ErrTicketClosed      = errors.New("tickets: ticket is closed")
	ErrForbidden         = errors.New("tickets: operation not permitted")
)

// statusRank orders the lifecycle; transitions must strictly increase.
var statusRank = map[string]int{
	StatusOpen:       0,
	StatusInProgress: 1,
	StatusResolved:   2,
	StatusClosed:     3,
}

// CanTransition reports whether from→to moves strictly forward.
func CanTransition(from, to string) bool {
	a, ok := statusRank[from]
	if !ok {
		return false
	}
	b, ok := statusRank[to]
	if !ok {
		return false
	}
	return b > a
}

// ValidPriority reports whether the value names a known priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
