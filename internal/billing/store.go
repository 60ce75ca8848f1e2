package billing

import "context"

// Store persists payments.
type Store interface {
	Create(ctx context.Context, p *Payment) error
	Find(ctx context.Context, id string) (*Payment, error)
	FindByTransaction(ctx context.Context, transactionID string) (*Payment, error)
	ListByProject(ctx context.Context, projectID string) ([]*Payment, error)
	// SetStatus moves a pending payment to a final status. A payment that
	// already reached completed or failed reports ErrFinalStatus.
	SetStatus(ctx context.Context, id, status, method, transactionID string) (*Payment, error)
}
