package portfolio

import (
	"context"
	"sort"
	"sync"
)

// InMemory is the in-process Store used by tests and local development.
type InMemory struct {
	mu    sync.RWMutex
	items map[string]*Item
}

func NewInMemory() *InMemory {
	return &InMemory{items: make(map[string]*Item)}
}

func (s *InMemory) Create(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *InMemory) ListActive(_ context.Context) ([]*Item, error) {
	return s.list(func(i *Item) bool { return i.Active }), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*Item, error) {
	return s.list(func(*Item) bool { return true }), nil
}

func (s *InMemory) list(keep func(*Item) bool) []*Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Item, 0)
	for _, item := range s.items {
		if keep(item) {
			cp := *item
			out = append(out, &cp)
		}
	}
	// Featured first, then newest.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *InMemory) Update(_ context.Context, item *Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return ErrNotFound
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}
