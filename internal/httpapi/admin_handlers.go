package httpapi

import (
	"net/http"

	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/tickets"
)

type adminStats struct {
	TotalUsers       int            `json:"total_users"`
	ActiveUsers      int            `json:"active_users"`
	TotalProjects    int            `json:"total_projects"`
	ProjectsByStatus map[string]int `json:"projects_by_status"`
	OpenTickets      int            `json:"open_tickets"`
}

func (a *API) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireRole(w, r, auth.RoleAdmin)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	users, err := a.cfg.Users.List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	projectList, err := a.cfg.Projects.List(r.Context(), admin, "")
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	ticketList, err := a.cfg.Tickets.List(r.Context(), admin)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	stats := adminStats{
		TotalUsers:       len(users),
		TotalProjects:    len(projectList),
		ProjectsByStatus: make(map[string]int, 4),
	}
	for _, u := range users {
		if u.Active {
			stats.ActiveUsers++
		}
	}
	for _, p := range projectList {
		stats.ProjectsByStatus[p.Status]++
	}
	for _, t := range ticketList {
		if t.Status != tickets.StatusClosed && t.Status != tickets.StatusResolved {
			stats.OpenTickets++
		}
	}
	writeJSON(w, http.StatusOK, stats)
}
