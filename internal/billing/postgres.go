package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const paymentColumns = `id, project_id, amount_cents, status, coalesce(method, ''), coalesce(transaction_id, ''), coalesce(preference_id, ''), created_at`

// PGStore is the PostgreSQL Store implementation.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, p *Payment) error {
	_, err := s.db.ExecContext(ctx, `
		insert into payments (id, project_id, amount_cents, status, method, transaction_id, preference_id, created_at)
		values ($1, $2, $3, $4, nullif($5, ''), nullif($6, ''), nullif($7, ''), $8)`,
		p.ID, p.ProjectID, p.AmountCents, p.Status, p.Method, p.TransactionID, p.PreferenceID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*Payment, error) {
	return scanPayment(s.db.QueryRowContext(ctx,
		`select `+paymentColumns+` from payments where id = $1`, id))
}

func (s *PGStore) FindByTransaction(ctx context.Context, transactionID string) (*Payment, error) {
	return scanPayment(s.db.QueryRowContext(ctx,
		`select `+paymentColumns+` from payments where transaction_id = $1`, transactionID))
}

func (s *PGStore) ListByProject(ctx context.Context, projectID string) ([]*Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+paymentColumns+` from payments where project_id = $1 order by created_at desc`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetStatus transitions pending→final with a status guard in the update
// itself, so a replayed webhook cannot overwrite the first outcome.
func (s *PGStore) SetStatus(ctx context.Context, id, status, method, transactionID string) (*Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		update payments
		set status = $2, method = nullif($3, ''), transaction_id = nullif($4, '')
		where id = $1 and status = $5
		returning `+paymentColumns,
		id, status, method, transactionID, StatusPending,
	)
	p, err := scanPayment(row)
	if errors.Is(err, ErrNotFound) {
		// Distinguish a missing payment from one already finalized.
		if _, findErr := s.Find(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, ErrFinalStatus
	}
	return p, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.ProjectID, &p.AmountCents, &p.Status, &p.Method, &p.TransactionID, &p.PreferenceID, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}
