package billing

import (
	"context"
	"sort"
	"sync"
)

// InMemory is the in-process Store used by tests and local development.
type InMemory struct {
	mu       sync.Mutex
	payments map[string]*Payment
}

func NewInMemory() *InMemory {
	return &InMemory{payments: make(map[string]*Payment)}
}

func (s *InMemory) Create(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, id string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindByTransaction(_ context.Context, transactionID string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) ListByProject(_ context.Context, projectID string) ([]*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Payment
	for _, p := range s.payments {
		if p.ProjectID == projectID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) SetStatus(_ context.Context, id, status, method, transactionID string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Compare-and-swap on status: only a pending payment moves.
	if p.Status != StatusPending {
		return nil, ErrFinalStatus
	}
	p.Status = status
	p.Method = method
	p.TransactionID = transactionID
	cp := *p
	return &cp, nil
}
