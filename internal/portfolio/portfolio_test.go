package portfolio

import (
	"context"
	"errors"
	"testing"
)

func TestPublicHidesInactiveItems(t *testing.T) {
	svc := NewService(NewInMemory())

	shown, err := svc.Create(context.Background(), CreateInput{Title: "Retail platform", Category: "web"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	hidden, err := svc.Create(context.Background(), CreateInput{Title: "Legacy CRM", Category: "web"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	off := false
	if _, err := svc.Update(context.Background(), hidden.ID, UpdateInput{Active: &off}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	public, err := svc.Public(context.Background())
	if err != nil {
		t.Fatalf("public: %v", err)
	}
	if len(public) != 1 || public[0].ID != shown.ID {
		t.Fatalf("public = %d items, want only the active one", len(public))
	}

	all, err := svc.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d items, want 2", len(all))
	}
}

func TestFeaturedItemsSortFirst(t *testing.T) {
	svc := NewService(NewInMemory())
	if _, err := svc.Create(context.Background(), CreateInput{Title: "Ordinary"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	star, err := svc.Create(context.Background(), CreateInput{Title: "Flagship", Featured: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	public, err := svc.Public(context.Background())
	if err != nil {
		t.Fatalf("public: %v", err)
	}
	if public[0].ID != star.ID {
		t.Fatalf("first item = %q, want the featured one", public[0].Title)
	}
}

func TestDeleteIsPermanent(t *testing.T) {
	svc := NewService(NewInMemory())
	item, err := svc.Create(context.Background(), CreateInput{Title: "Old work"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	svc := NewService(NewInMemory())
	if _, err := svc.Create(context.Background(), CreateInput{Title: "   "}); err == nil {
		t.Fatal("create with blank title succeeded, want error")
	}
}
