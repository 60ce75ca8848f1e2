package httpapi

import (
	"net/http"
	"testing"
	"time"

	"softwarepar.lat/internal/auth"
)

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/api/auth/me", "/api/projects", "/api/tickets", "/api/notifications"} {
		resp := api.do(http.MethodGet, path, "", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("GET %s status = %d, want 401", path, resp.StatusCode)
		}
	}
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	api := newTestAPI(t)

	req, err := http.NewRequest(http.MethodGet, api.baseURL+"/api/auth/me", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp, err := api.client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	api := newTestAPI(t)
	_, user := api.register("cliente@example.com", "Cliente Uno")

	token, err := auth.GenerateToken(user.ID, user.Role, -time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	resp := api.do(http.MethodGet, "/api/auth/me", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	req, err := http.NewRequest(http.MethodOptions, api.baseURL+"/api/projects", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := api.client.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestAdminStats(t *testing.T) {
	api := newTestAPI(t)
	adminToken, _ := api.admin()
	clientToken, _ := api.register("cliente@example.com", "Cliente Uno")

	resp := api.do(http.MethodPost, "/api/projects", clientToken, map[string]any{"name": "Demo"})
	resp.Body.Close()
	openTicket(t, api, clientToken, "Consulta")

	resp = api.do(http.MethodGet, "/api/admin/stats", clientToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("client stats status = %d, want 403", resp.StatusCode)
	}

	resp = api.do(http.MethodGet, "/api/admin/stats", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats status = %d", resp.StatusCode)
	}
	stats := decodeBody[adminStats](t, resp)
	if stats.TotalUsers != 2 || stats.TotalProjects != 1 || stats.OpenTickets != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
