package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety. Used by tests
// and local demos; PGStore is the durable implementation.
type InMemory struct {
	mu        sync.RWMutex
	partners  map[string]*Partner
	referrals map[string]*Referral
}

// NewInMemory creates an empty ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		partners:  make(map[string]*Partner),
		referrals: make(map[string]*Referral),
	}
}

func (s *InMemory) CreatePartner(ctx context.Context, p *Partner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.partners {
		if existing.UserID == p.UserID {
			return ErrDuplicatePartner
		}
		if existing.ReferralCode == p.ReferralCode {
			return ErrDuplicatePartner
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	s.partners[p.ID] = &cp
	return nil
}

func (s *InMemory) ListPartners(ctx context.Context) ([]*Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Partner, 0, len(s.partners))
	for _, p := range s.partners {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) FindPartner(ctx context.Context, id string) (*Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partners[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemory) FindPartnerByUser(ctx context.Context, userID string) (*Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.partners {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) FindPartnerByCode(ctx context.Context, code string) (*Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.partners {
		if p.ReferralCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) DeletePartner(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partners[id]; !ok {
		return ErrNotFound
	}
	delete(s.partners, id)
	return nil
}

func (s *InMemory) CreateReferral(ctx context.Context, r *Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.partners[r.PartnerID]; !ok {
		return ErrNotFound
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	cp := *r
	s.referrals[r.ID] = &cp
	return nil
}

func (s *InMemory) FindReferral(ctx context.Context, id string) (*Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.referrals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *InMemory) FindReferralByProject(ctx context.Context, projectID string) (*Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if projectID == "" {
		return nil, ErrNotFound
	}
	for _, r := range s.referrals {
		if r.ProjectID == projectID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) ListReferrals(ctx context.Context, partnerID string) ([]*Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Referral
	for _, r := range s.referrals {
		if r.PartnerID == partnerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Settle(ctx context.Context, referralID string, amountCents int64) (*Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[referralID]
	if !ok {
		return nil, ErrNotFound
	}
	// Compare-and-swap on status: only a pending referral settles.
	if r.Status != StatusPending {
		return nil, ErrAlreadySettled
	}
	p, ok := s.partners[r.PartnerID]
	if !ok {
		return nil, ErrNotFound
	}
	r.Status = StatusConverted
	r.CommissionAmountCents = amountCents
	p.TotalEarningsCents += amountCents
	cp := *r
	return &cp, nil
}

func (s *InMemory) MarkPaid(ctx context.Context, referralID string) (*Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[referralID]
	if !ok {
		return nil, ErrNotFound
	}
	if r.Status != StatusConverted {
		return nil, ErrNotConverted
	}
	r.Status = StatusPaid
	cp := *r
	return &cp, nil
}
