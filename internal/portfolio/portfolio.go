// Package portfolio manages the public showcase of delivered work.
// Reads are public and only return active items; writes are admin only.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"softwarepar.lat/internal/ids"
)

// Item is one showcase entry. Technologies is a comma separated list.
type Item struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Technologies string    `json:"technologies"`
	ImageURL     string    `json:"image_url,omitempty"`
	DemoURL      string    `json:"demo_url,omitempty"`
	Featured     bool      `json:"featured"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

var ErrNotFound = errors.New("portfolio: not found")

// Store persists showcase items.
type Store interface {
	Create(ctx context.Context, item *Item) error
	Find(ctx context.Context, id string) (*Item, error)
	ListActive(ctx context.Context) ([]*Item, error)
	ListAll(ctx context.Context) ([]*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id string) error
}

// Service validates writes before they reach the store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateInput carries the fields of a new showcase item.
type CreateInput struct {
	Title        string
	Description  string
	Category     string
	Technologies string
	ImageURL     string
	DemoURL      string
	Featured     bool
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Item, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("portfolio: title required")
	}
	item := &Item{
		ID:           ids.New(),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Category:     strings.TrimSpace(in.Category),
		Technologies: strings.TrimSpace(in.Technologies),
		ImageURL:     strings.TrimSpace(in.ImageURL),
		DemoURL:      strings.TrimSpace(in.DemoURL),
		Featured:     in.Featured,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Public returns only active items, the set anonymous visitors see.
func (s *Service) Public(ctx context.Context) ([]*Item, error) {
	return s.store.ListActive(ctx)
}

// All returns every item including deactivated ones, for the admin panel.
func (s *Service) All(ctx context.Context) ([]*Item, error) {
	return s.store.ListAll(ctx)
}

// UpdateInput carries optional field changes; nil means keep as is.
type UpdateInput struct {
	Title        *string
	Description  *string
	Category     *string
	Technologies *string
	ImageURL     *string
	DemoURL      *string
	Featured     *bool
	Active       *bool
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Item, error) {
	item, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("portfolio: title required")
		}
		item.Title = title
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		item.Category = strings.TrimSpace(*in.Category)
	}
	if in.Technologies != nil {
		item.Technologies = strings.TrimSpace(*in.Technologies)
	}
	if in.ImageURL != nil {
		item.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.DemoURL != nil {
		item.DemoURL = strings.TrimSpace(*in.DemoURL)
	}
	if in.Featured != nil {
		item.Featured = *in.Featured
	}
	if in.Active != nil {
		item.Active = *in.Active
	}
	if err := s.store.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item permanently. Deactivation via Update is the
// reversible alternative.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
