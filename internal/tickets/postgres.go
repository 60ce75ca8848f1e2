package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const ticketColumns = `id, user_id, coalesce(project_id, ''), title, description, status, priority, created_at, updated_at`

// PGStore is the PostgreSQL Store implementation.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, t *Ticket) error {
	_, err := s.db.ExecContext(ctx, `
		insert into tickets (id, user_id, project_id, title, description, status, priority, created_at, updated_at)
		values ($1, $2, nullif($3, ''), $4, $5, $6, $7, $8, $9)`,
		t.ID, t.UserID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*Ticket, error) {
	return scanTicket(s.db.QueryRowContext(ctx, `select `+ticketColumns+` from tickets where id = $1`, id))
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]*Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+ticketColumns+` from tickets where user_id = $1 order by created_at desc`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (s *PGStore) ListAll(ctx context.Context) ([]*Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `select `+ticketColumns+` from tickets order by created_at desc`)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (s *PGStore) Update(ctx context.Context, t *Ticket) error {
	res, err := s.db.ExecContext(ctx, `
		update tickets set title = $2, description = $3, status = $4, priority = $5, updated_at = $6
		where id = $1`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Responses(ctx context.Context, ticketID string) ([]*Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, ticket_id, user_id, message, from_support, created_at
		from ticket_responses where ticket_id = $1 order by created_at asc`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []*Response
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ID, &r.TicketID, &r.UserID, &r.Message, &r.FromSupport, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PGStore) AddResponse(ctx context.Context, r *Response) error {
	_, err := s.db.ExecContext(ctx, `
		insert into ticket_responses (id, ticket_id, user_id, message, from_support, created_at)
		values ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.TicketID, r.UserID, r.Message, r.FromSupport, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*Ticket, error) {
	var t Ticket
	err := row.Scan(&t.ID, &t.UserID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ticket: %w", err)
	}
	return &t, nil
}

func collectTickets(rows *sql.Rows) ([]*Ticket, error) {
	var out []*Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
