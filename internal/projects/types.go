package projects

import (
	"errors"
	"time"
)

// Project lifecycle. pending may move to in_progress or cancelled;
// in_progress only to completed. Terminal states have no exits.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Project is a client engagement. PartnerID links it to the referring
// partner's ledger entry when the client came through a referral.
type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	PriceCents   int64      `json:"price_cents"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	ClientID     string     `json:"client_id"`
	PartnerID    string     `json:"partner_id,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Message is a conversation entry on a project.
type Message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// File is an uploaded deliverable or attachment reference.
type File struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	FileName   string    `json:"file_name"`
	FileURL    string    `json:"file_url"`
	FileType   string    `json:"file_type"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TimelineEntry is a milestone on the project plan.
type TimelineEntry struct {
	ID            string     `json:"id"`
	ProjectID     string     `json:"project_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Status        string     `json:"status"`
	EstimatedDate *time.Time `json:"estimated_date,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

var (
	ErrNotFound          = errors.New("projects: not found")
	ErrInvalidTransition = errors.New("projects: invalid status transition")
	ErrInvalidProgress   = errors.New("projects: progress out of range")
	ErrForbidden         = errors.New("projects: operation not permitted")
)

// validTransitions encodes the forward-only state machine.
var validTransitions = map[string][]string{
	StatusPending:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether from→to is a legal move.
func CanTransition(from, to string) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether the value names a known project state.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
