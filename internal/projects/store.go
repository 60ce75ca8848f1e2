package projects

import "context"

// Store persists projects and their nested records.
type Store interface {
	Create(ctx context.Context, p *Project) error
	Find(ctx context.Context, id string) (*Project, error)
	ListByClient(ctx context.Context, clientID string) ([]*Project, error)
	ListByPartner(ctx context.Context, partnerID string) ([]*Project, error)
	ListAll(ctx context.Context) ([]*Project, error)
	Update(ctx context.Context, p *Project) error

	Messages(ctx context.Context, projectID string) ([]*Message, error)
	AddMessage(ctx context.Context, m *Message) error

	Files(ctx context.Context, projectID string) ([]*File, error)
	AddFile(ctx context.Context, f *File) error

	Timeline(ctx context.Context, projectID string) ([]*TimelineEntry, error)
	AddTimelineEntry(ctx context.Context, e *TimelineEntry) error
	UpdateTimelineEntry(ctx context.Context, e *TimelineEntry) error
}
