package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const projectColumns = `id, name, description, price_cents, status, progress, client_id, coalesce(partner_id, ''), delivery_date, created_at, updated_at`

// PGStore is the PostgreSQL Store implementation.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, p *Project) error {
	_, err := s.db.ExecContext(ctx, `
		insert into projects (id, name, description, price_cents, status, progress, client_id, partner_id, delivery_date, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, nullif($8, ''), $9, $10, $11)`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Status, p.Progress,
		p.ClientID, p.PartnerID, p.DeliveryDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `select `+projectColumns+` from projects where id = $1`, id)
	return scanProject(row)
}

func (s *PGStore) ListByClient(ctx context.Context, clientID string) ([]*Project, error) {
	return s.listWhere(ctx, `client_id = $1`, clientID)
}

func (s *PGStore) ListByPartner(ctx context.Context, partnerID string) ([]*Project, error) {
	return s.listWhere(ctx, `partner_id = $1`, partnerID)
}

func (s *PGStore) ListAll(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `select `+projectColumns+` from projects order by created_at desc`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (s *PGStore) listWhere(ctx context.Context, where string, arg any) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `select `+projectColumns+` from projects where `+where+` order by created_at desc`, arg)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	return collectProjects(rows)
}

func (s *PGStore) Update(ctx context.Context, p *Project) error {
	res, err := s.db.ExecContext(ctx, `
		update projects
		set name = $2, description = $3, price_cents = $4, status = $5, progress = $6,
		    partner_id = nullif($7, ''), delivery_date = $8, updated_at = $9
		where id = $1`,
		p.ID, p.Name, p.Description, p.PriceCents, p.Status, p.Progress,
		p.PartnerID, p.DeliveryDate, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Messages(ctx context.Context, projectID string) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, project_id, user_id, message, created_at
		from project_messages where project_id = $1 order by created_at asc`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *PGStore) AddMessage(ctx context.Context, m *Message) error {
	_, err := s.db.ExecContext(ctx, `
		insert into project_messages (id, project_id, user_id, message, created_at)
		values ($1, $2, $3, $4, $5)`,
		m.ID, m.ProjectID, m.UserID, m.Message, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PGStore) Files(ctx context.Context, projectID string) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, project_id, file_name, file_url, coalesce(file_type, ''), uploaded_by, uploaded_at
		from project_files where project_id = $1 order by uploaded_at desc`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.FileName, &f.FileURL, &f.FileType, &f.UploadedBy, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}

func (s *PGStore) AddFile(ctx context.Context, f *File) error {
	_, err := s.db.ExecContext(ctx, `
		insert into project_files (id, project_id, file_name, file_url, file_type, uploaded_by, uploaded_at)
		values ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.ProjectID, f.FileName, f.FileURL, f.FileType, f.UploadedBy, f.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (s *PGStore) Timeline(ctx context.Context, projectID string) ([]*TimelineEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, project_id, title, coalesce(description, ''), status, estimated_date, completed_at, created_at
		from project_timeline where project_id = $1 order by created_at asc`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	var out []*TimelineEntry
	for rows.Next() {
		var e TimelineEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Title, &e.Description, &e.Status, &e.EstimatedDate, &e.CompletedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *PGStore) AddTimelineEntry(ctx context.Context, e *TimelineEntry) error {
	_, err := s.db.ExecContext(ctx, `
		insert into project_timeline (id, project_id, title, description, status, estimated_date, created_at)
		values ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ProjectID, e.Title, e.Description, e.Status, e.EstimatedDate, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert timeline entry: %w", err)
	}
	return nil
}

func (s *PGStore) UpdateTimelineEntry(ctx context.Context, e *TimelineEntry) error {
	res, err := s.db.ExecContext(ctx, `
		update project_timeline
		set title = $2, description = $3, status = $4, estimated_date = $5, completed_at = $6
		where id = $1`,
		e.ID, e.Title, e.Description, e.Status, e.EstimatedDate, e.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update timeline entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update timeline entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var delivery sql.NullTime
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.Status, &p.Progress,
		&p.ClientID, &p.PartnerID, &delivery, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	if delivery.Valid {
		t := delivery.Time.UTC()
		p.DeliveryDate = &t
	}
	return &p, nil
}

func collectProjects(rows *sql.Rows) ([]*Project, error) {
	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
