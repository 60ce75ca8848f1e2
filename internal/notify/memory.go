package notify

import (
	"context"
	"sort"
	"sync"
)

// InMemory is the in-process Store used by tests and local development.
type InMemory struct {
	mu     sync.RWMutex
	byUser map[string][]*Notification
}

func NewInMemory() *InMemory {
	return &InMemory{byUser: make(map[string][]*Notification)}
}

func (s *InMemory) Create(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.byUser[n.UserID] = append(s.byUser[n.UserID], &cp)
	return nil
}

func (s *InMemory) Latest(_ context.Context, userID string) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.byUser[userID]
	out := make([]*Notification, 0, len(all))
	for _, n := range all {
		cp := *n
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > latestLimit {
		out = out[:latestLimit]
	}
	return out, nil
}

func (s *InMemory) MarkRead(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.byUser[userID] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (s *InMemory) MarkAllRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.byUser[userID] {
		n.Read = true
	}
	return nil
}
