package tickets

import "context"

// Store persists tickets and their response threads.
type Store interface {
	Create(ctx context.Context, t *Ticket) error
	Find(ctx context.Context, id string) (*Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]*Ticket, error)
	ListAll(ctx context.Context) ([]*Ticket, error)
	Update(ctx context.Context, t *Ticket) error

	Responses(ctx context.Context, ticketID string) ([]*Response, error)
	AddResponse(ctx context.Context, r *Response) error
}
