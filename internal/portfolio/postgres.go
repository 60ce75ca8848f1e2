package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const itemColumns = `id, title, description, category, technologies, coalesce(image_url, ''), coalesce(demo_url, ''), featured, active, created_at`

// PGStore is the PostgreSQL Store implementation.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Create(ctx context.Context, item *Item) error {
	_, err := s.db.ExecContext(ctx, `
		insert into portfolio (id, title, description, category, technologies, image_url, demo_url, featured, active, created_at)
		values ($1, $2, $3, $4, $5, nullif($6, ''), nullif($7, ''), $8, $9, $10)`,
		item.ID, item.Title, item.Description, item.Category, item.Technologies,
		item.ImageURL, item.DemoURL, item.Featured, item.Active, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert portfolio item: %w", err)
	}
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := s.db.QueryRowContext(ctx, `select `+itemColumns+` from portfolio where id = $1`, id).Scan(
		&item.ID, &item.Title, &item.Description, &item.Category, &item.Technologies,
		&item.ImageURL, &item.DemoURL, &item.Featured, &item.Active, &item.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan portfolio item: %w", err)
	}
	return &item, nil
}

func (s *PGStore) ListActive(ctx context.Context) ([]*Item, error) {
	return s.listWhere(ctx, `where active`)
}

func (s *PGStore) ListAll(ctx context.Context) ([]*Item, error) {
	return s.listWhere(ctx, ``)
}

func (s *PGStore) listWhere(ctx context.Context, where string) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+itemColumns+` from portfolio `+where+` order by featured desc, created_at desc`)
	if err != nil {
		return nil, fmt.Errorf("list portfolio: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Category, &item.Technologies,
			&item.ImageURL, &item.DemoURL, &item.Featured, &item.Active, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan portfolio item: %w", err)
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, item *Item) error {
	res, err := s.db.ExecContext(ctx, `
		update portfolio
		set title = $2, description = $3, category = $4, technologies = $5,
		    image_url = nullif($6, ''), demo_url = nullif($7, ''), featured = $8, active = $9
		where id = $1`,
		item.ID, item.Title, item.Description, item.Category, item.Technologies,
		item.ImageURL, item.DemoURL, item.Featured, item.Active,
	)
	if err != nil {
		return fmt.Errorf("update portfolio item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update portfolio item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from portfolio where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete portfolio item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
