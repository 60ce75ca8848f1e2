package httpapi

import (
	"context"
	"net/http"
	"testing"

	"softwarepar.lat/internal/portfolio"
)

func TestPortfolioPublicRead(t *testing.T) {
	api := newTestAPI(t)
	adminToken, _ := api.admin()

	resp := api.do(http.MethodPost, "/api/portfolio", adminToken, map[string]any{
		"title":        "Tienda online",
		"category":     "ecommerce",
		"technologies": "Go, PostgreSQL, React",
		"featured":     true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	item := decodeBody[portfolio.Item](t, resp)

	// Hide it and confirm the anonymous listing drops it while the
	// admin listing keeps it.
	if _, err := api.portfolio.Update(context.Background(), item.ID, portfolio.UpdateInput{
		Active: boolPtr(false),
	}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	resp = api.do(http.MethodGet, "/api/portfolio", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public list status = %d", resp.StatusCode)
	}
	public := decodeBody[[]*portfolio.Item](t, resp)
	if len(public) != 0 {
		t.Fatalf("public list has %d items, want 0", len(public))
	}

	resp = api.do(http.MethodGet, "/api/portfolio", adminToken, nil)
	all := decodeBody[[]*portfolio.Item](t, resp)
	if len(all) != 1 {
		t.Fatalf("admin list has %d items, want 1", len(all))
	}
}

func TestPortfolioWriteRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("cliente@example.com", "Cliente Uno")

	resp := api.do(http.MethodPost, "/api/portfolio", token, map[string]any{
		"title": "Intrusión",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestPortfolioUpdateAndDelete(t *testing.T) {
	api := newTestAPI(t)
	adminToken, _ := api.admin()

	resp := api.do(http.MethodPost, "/api/portfolio", adminToken, map[string]any{
		"title": "Sistema de turnos",
	})
	item := decodeBody[portfolio.Item](t, resp)

	resp = api.do(http.MethodPut, "/api/portfolio/"+item.ID, adminToken, map[string]any{
		"featured": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	updated := decodeBody[portfolio.Item](t, resp)
	if !updated.Featured {
		t.Fatal("expected featured to be set")
	}

	resp = api.do(http.MethodDelete, "/api/portfolio/"+item.ID, adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp = api.do(http.MethodGet, "/api/portfolio", adminToken, nil)
	all := decodeBody[[]*portfolio.Item](t, resp)
	if len(all) != 0 {
		t.Fatalf("list after delete has %d items, want 0", len(all))
	}
}

func boolPtr(b bool) *bool { return &b }
