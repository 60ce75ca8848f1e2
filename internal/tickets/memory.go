package tickets

import (
	"context"
	"sort"
	"sync"
)

// InMemory is the in-process Store used by tests and local development.
type InMemory struct {
	mu        sync.RWMutex
	tickets   map[string]*Ticket
	responses map[string][]*Response
}

func NewInMemory() *InMemory {
	return &InMemory{
		tickets:   make(map[string]*Ticket),
		responses: make(map[string][]*Response),
	}
}

func (s *InMemory) Create(_ context.Context, t *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, id string) (*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemory) ListByUser(_ context.Context, userID string) ([]*Ticket, error) {
	return s.list(func(t *Ticket) bool { return t.UserID == userID }), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*Ticket, error) {
	return s.list(func(*Ticket) bool { return true }), nil
}

func (s *InMemory) list(keep func(*Ticket) bool) []*Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Ticket, 0)
	for _, t := range s.tickets {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *InMemory) Update(_ context.Context, t *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[t.ID]; !ok {
		return ErrNotFound
	}
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}

func (s *InMemory) Responses(_ context.Context, ticketID string) ([]*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Response, 0, len(s.responses[ticketID]))
	for _, r := range s.responses[ticketID] {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) AddResponse(_ context.Context, r *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.responses[r.TicketID] = append(s.responses[r.TicketID], &cp)
	return nil
}
