package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/ids"
)

// Service applies access rules and the status state machine on top of a Store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateInput carries the caller-supplied fields for a new project.
type CreateInput struct {
	Name         string
	Description  string
	PriceCents   int64
	ClientID     string
	PartnerID    string
	DeliveryDate *time.Time
}

// Create registers a new project. Clients may only open projects for
// themselves and always start at pending; admins may create for any
// client and attach a referring partner.
func (s *Service) Create(ctx context.Context, actor *auth.User, in CreateInput) (*Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("projects: name required")
	}
	clientID := in.ClientID
	partnerID := in.PartnerID
	if actor.Role != auth.RoleAdmin {
		clientID = actor.ID
		partnerID = ""
	}
	if clientID == "" {
		return nil, fmt.Errorf("projects: client required")
	}
	if in.PriceCents < 0 {
		return nil, fmt.Errorf("projects: price must not be negative")
	}

	now := time.Now().UTC()
	p := &Project{
		ID:           ids.New(),
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		PriceCents:   in.PriceCents,
		Status:       StatusPending,
		Progress:     0,
		ClientID:     clientID,
		PartnerID:    partnerID,
		DeliveryDate: in.DeliveryDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a project if the actor is allowed to see it. partnerID is
// the actor's ledger partner id when the actor is a partner, empty
// otherwise.
func (s *Service) Get(ctx context.Context, actor *auth.User, partnerID, projectID string) (*Project, error) {
	p, err := s.store.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.visible(actor, partnerID, p) {
		return nil, ErrNotFound
	}
	return p, nil
}

// List returns the projects visible to the actor.
func (s *Service) List(ctx context.Context, actor *auth.User, partnerID string) ([]*Project, error) {
	switch actor.Role {
	case auth.RoleAdmin:
		return s.store.ListAll(ctx)
	case auth.RolePartner:
		if partnerID == "" {
			return []*Project{}, nil
		}
		return s.store.ListByPartner(ctx, partnerID)
	default:
		return s.store.ListByClient(ctx, actor.ID)
	}
}

// UpdateInput carries the mutable descriptive fields of a project.
type UpdateInput struct {
	Name         *string
	Description  *string
	PriceCents   *int64
	DeliveryDate *time.Time
}

// Update changes descriptive fields. Admin only.
func (s *Service) Update(ctx context.Context, actor *auth.User, projectID string, in UpdateInput) (*Project, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, ErrForbidden
	}
	p, err := s.store.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("projects: name required")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return nil, fmt.Errorf("projects: price must not be negative")
		}
		p.PriceCents = *in.PriceCents
	}
	if in.DeliveryDate != nil {
		p.DeliveryDate = in.DeliveryDate
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStatus moves a project through its state machine. Admins may
// perform any legal transition. The owning client may only cancel a
// project that is still pending. A completed project is pinned at 100%
// progress.
func (s *Service) UpdateStatus(ctx context.Context, actor *auth.User, projectID, status string) (*Project, error) {
	if !ValidStatus(status) {
		return nil, fmt.Errorf("projects: unknown status %q", status)
	}
	p, err := s.store.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case auth.RoleAdmin:
	case auth.RoleClient:
		if p.ClientID != actor.ID || status != StatusCancelled {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}
	if !CanTransition(p.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, p.Status, status)
	}
	p.Status = status
	if status == StatusCompleted {
		p.Progress = 100
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetProgress updates the completion percentage. Admin only, and the
// progress of a finished or cancelled project cannot change.
func (s *Service) SetProgress(ctx context.Context, actor *auth.User, projectID string, progress int) (*Project, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, ErrForbidden
	}
	if progress < 0 || progress > 100 {
		return nil, ErrInvalidProgress
	}
	p, err := s.store.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusCompleted || p.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: project is %s", ErrInvalidTransition, p.Status)
	}
	p.Progress = progress
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Messages returns the conversation for a visible project.
func (s *Service) Messages(ctx context.Context, actor *auth.User, partnerID, projectID string) ([]*Message, error) {
	if _, err := s.Get(ctx, actor, partnerID, projectID); err != nil {
		return nil, err
	}
	return s.store.Messages(ctx, projectID)
}

// PostMessage appends a message for any actor who can see the project.
func (s *Service) PostMessage(ctx context.Context, actor *auth.User, partnerID, projectID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("projects: message required")
	}
	if _, err := s.Get(ctx, actor, partnerID, projectID); err != nil {
		return nil, err
	}
	m := &Message{
		ID:        ids.New(),
		ProjectID: projectID,
		UserID:    actor.ID,
		Message:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AddMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Files returns the attachments of a visible project.
func (s *Service) Files(ctx context.Context, actor *auth.User, partnerID, projectID string) ([]*File, error) {
	if _, err := s.Get(ctx, actor, partnerID, projectID); err != nil {
		return nil, err
	}
	return s.store.Files(ctx, projectID)
}

// AddFile records a file reference. Admins and the owning client may attach.
func (s *Service) AddFile(ctx context.Context, actor *auth.User, projectID, name, url, fileType string) (*File, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" || url == "" {
		return nil, fmt.Errorf("projects: file name and url required")
	}
	p, err := s.store.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.Role != auth.RoleAdmin && p.ClientID != actor.ID {
		return nil, ErrForbidden
	}
	f := &File{
		ID:         ids.New(),
		ProjectID:  projectID,
		FileName:   name,
		FileURL:    url,
		FileType:   fileType,
		UploadedBy: actor.ID,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.store.AddFile(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Timeline returns the milestones of a visible project.
func (s *Service) Timeline(ctx context.Context, actor *auth.User, partnerID, projectID string) ([]*TimelineEntry, error) {
	if _, err := s.Get(ctx, actor, partnerID, projectID); err != nil {
		return nil, err
	}
	return s.store.Timeline(ctx, projectID)
}

// AddTimelineEntry creates a milestone. Admin only.
func (s *Service) AddTimelineEntry(ctx context.Context, actor *auth.User, projectID, title, description string, estimated *time.Time) (*TimelineEntry, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, ErrForbidden
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("projects: title required")
	}
	if _, err := s.store.Find(ctx, projectID); err != nil {
		return nil, err
	}
	e := &TimelineEntry{
		ID:            ids.New(),
		ProjectID:     projectID,
		Title:         title,
		Description:   strings.TrimSpace(description),
		Status:        StatusPending,
		EstimatedDate: estimated,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.AddTimelineEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CompleteTimelineEntry marks a milestone done. Admin only.
func (s *Service) CompleteTimelineEntry(ctx context.Context, actor *auth.User, projectID, entryID string) (*TimelineEntry, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, ErrForbidden
	}
	entries, err := s.store.Timeline(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID != entryID {
			continue
		}
		now := time.Now().UTC()
		e.Status = StatusCompleted
		e.CompletedAt = &now
		if err := s.store.UpdateTimelineEntry(ctx, e); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, ErrNotFound
}

func (s *Service) visible(actor *auth.User, partnerID string, p *Project) bool {
	switch actor.Role {
	case auth.RoleAdmin:
		return true
	case auth.RolePartner:
		return partnerID != "" && p.PartnerID == partnerID
	default:
		return p.ClientID == actor.ID
	}
}
