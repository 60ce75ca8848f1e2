package projects

import (
	"context"
	"sort"
	"sync"
)

// InMemory is a Store backed by process memory, used by tests and
// local development without a database.
type InMemory struct {
	mu       sync.RWMutex
	projects map[string]*Project
	messages map[string][]*Message
	files    map[string][]*File
	timeline map[string][]*TimelineEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		projects: make(map[string]*Project),
		messages: make(map[string][]*Message),
		files:    make(map[string][]*File),
		timeline: make(map[string][]*TimelineEntry),
	}
}

func (s *InMemory) Create(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) ListByClient(_ context.Context, clientID string) ([]*Project, error) {
	return s.list(func(p *Project) bool { return p.ClientID == clientID }), nil
}

func (s *InMemory) ListByPartner(_ context.Context, partnerID string) ([]*Project, error) {
	return s.list(func(p *Project) bool { return p.PartnerID == partnerID }), nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*Project, error) {
	return s.list(func(*Project) bool { return true }), nil
}

func (s *InMemory) list(keep func(*Project) bool) []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Project, 0)
	for _, p := range s.projects {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *InMemory) Update(_ context.Context, p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

func (s *InMemory) Messages(_ context.Context, projectID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Message, 0, len(s.messages[projectID]))
	for _, m := range s.messages[projectID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) AddMessage(_ context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.ProjectID] = append(s.messages[m.ProjectID], &cp)
	return nil
}

func (s *InMemory) Files(_ context.Context, projectID string) ([]*File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*File, 0, len(s.files[projectID]))
	for _, f := range s.files[projectID] {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) AddFile(_ context.Context, f *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *f
	s.files[f.ProjectID] = append(s.files[f.ProjectID], &cp)
	return nil
}

func (s *InMemory) Timeline(_ context.Context, projectID string) ([]*TimelineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*TimelineEntry, 0, len(s.timeline[projectID]))
	for _, e := range s.timeline[projectID] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) AddTimelineEntry(_ context.Context, e *TimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.timeline[e.ProjectID] = append(s.timeline[e.ProjectID], &cp)
	return nil
}

func (s *InMemory) UpdateTimelineEntry(_ context.Context, e *TimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, have := range s.timeline[e.ProjectID] {
		if have.ID == e.ID {
			cp := *e
			s.timeline[e.ProjectID][i] = &cp
			return nil
		}
	}
	return ErrNotFound
}
