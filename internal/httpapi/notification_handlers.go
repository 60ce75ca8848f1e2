package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"softwarepar.lat/internal/notify"
)

func (a *API) handleNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	list, err := a.cfg.Hub.Latest(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleNotificationResource covers PUT /api/notifications/{id}/read and
// PUT /api/notifications/read-all.
func (a *API) handleNotificationResource(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/notifications/")
	if path == "read-all" {
		if err := a.cfg.Hub.MarkAllRead(r.Context(), user.ID); err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}

	id, action, _ := strings.Cut(path, "/")
	if id == "" || action != "read" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if err := a.cfg.Hub.MarkRead(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "notification not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
