package tickets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/ids"
)

// Service enforces ownership and the forward-only status lifecycle.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Open raises a ticket on behalf of the actor. Priority defaults to medium.
func (s *Service) Open(ctx context.Context, actor *auth.User, title, description, priority, projectID string) (*Ticket, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("tickets: title required")
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidPriority(priority) {
		return nil, fmt.Errorf("tickets: unknown priority %q", priority)
	}

	now := time.Now().UTC()
	t := &Ticket{
		ID:          ids.New(),
		UserID:      actor.ID,
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      StatusOpen,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a ticket visible to the actor. Non-admins only see their own;
// a foreign ticket reads as not found.
func (s *Service) Get(ctx context.Context, actor *auth.User, id string) (*Ticket, error) {
	t, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleAdmin && t.UserID != actor.ID {
		return nil, ErrNotFound
	}
	return t, nil
}

// List returns the actor's tickets, or every ticket for an admin.
func (s *Service) List(ctx context.Context, actor *auth.User) ([]*Ticket, error) {
	if actor.Role == auth.RoleAdmin {
		return s.store.ListAll(ctx)
	}
	return s.store.ListByUser(ctx, actor.ID)
}

// UpdateStatus advances a ticket through its lifecycle. Admins may advance to
// any later state; the owner may only close their own ticket.
func (s *Service) UpdateStatus(ctx context.Context, actor *auth.User, id, status string) (*Ticket, error) {
	if _, ok := statusRank[status]; !ok {
		return nil, fmt.Errorf("tickets: unknown status %q", status)
	}
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleAdmin && status != StatusClosed {
		return nil, ErrForbidden
	}
	if !CanTransition(t.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.Status, status)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Responses returns a ticket's thread, oldest first.
func (s *Service) Responses(ctx context.Context, actor *auth.User, ticketID string) ([]*Response, error) {
	if _, err := s.Get(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	return s.store.Responses(ctx, ticketID)
}

// Respond appends to the thread. A closed ticket takes no further responses.
// Admin replies are tagged as support.
func (s *Service) Respond(ctx context.Context, actor *auth.User, ticketID, message string) (*Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("tickets: message required")
	}
	t, err := s.Get(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusClosed {
		return nil, ErrTicketClosed
	}
	r := &Response{
		ID:          ids.New(),
		TicketID:    ticketID,
		UserID:      actor.ID,
		Message:     message,
		FromSupport: actor.Role == auth.RoleAdmin,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AddResponse(ctx, r); err != nil {
		return nil, err
	}
	t.UpdatedAt = r.CreatedAt
	if err := s.store.Update(ctx, t); err != nil {
		return nil, err
	}
	return r, nil
}
