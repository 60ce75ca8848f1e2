package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"softwarepar.lat/internal/audit"
	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/notify"
	"softwarepar.lat/internal/obs"
	"softwarepar.lat/internal/tickets"
)

type openTicketRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description,omitempty" validate:"max=4000"`
	Priority    string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	ProjectID   string `json:"project_id,omitempty"`
}

type updateTicketRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

type respondRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

func (a *API) handleTicketsCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.cfg.Tickets.List(r.Context(), user)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req openTicketRequest
		if !decodeValid(w, r, &req) {
			return
		}
		t, err := a.cfg.Tickets.Open(r.Context(), user, req.Title, req.Description, req.Priority, req.ProjectID)
		if err != nil {
			handleTicketError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "tickets.opened", map[string]any{
			"ticket_id": t.ID,
			"priority":  t.Priority,
		})
		w.Header().Set("Location", "/api/tickets/"+t.ID)
		writeJSON(w, http.StatusCreated, t)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTicketResource(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/tickets/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch rest {
	case "":
		switch r.Method {
		case http.MethodGet:
			t, err := a.cfg.Tickets.Get(r.Context(), user, id)
			if err != nil {
				handleTicketError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, t)
		case http.MethodPut:
			a.updateTicket(w, r, user, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
		}
	case "responses":
		a.handleTicketResponses(w, r, user, id)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) updateTicket(w http.ResponseWriter, r *http.Request, user *auth.User, id string) {
	var req updateTicketRequest
	if !decodeValid(w, r, &req) {
		return
	}
	t, err := a.cfg.Tickets.UpdateStatus(r.Context(), user, id, req.Status)
	if err != nil {
		handleTicketError(w, r, err)
		return
	}

	if user.Role == auth.RoleAdmin {
		if _, err := a.cfg.Hub.Publish(r.Context(), t.UserID, notify.TypeTicket,
			"Ticket actualizado", fmt.Sprintf("Tu ticket %q ahora está %s.", t.Title, t.Status)); err != nil {
			obs.LogError("tickets.status.notify", err)
		}
	}
	_ = audit.LogEvent(r.Context(), "tickets.status_changed", map[string]any{
		"ticket_id": t.ID,
		"status":    t.Status,
	})
	writeJSON(w, http.StatusOK, t)
}

func (a *API) handleTicketResponses(w http.ResponseWriter, r *http.Request, user *auth.User, id string) {
	switch r.Method {
	case http.MethodGet:
		thread, err := a.cfg.Tickets.Responses(r.Context(), user, id)
		if err != nil {
			handleTicketError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, thread)
	case http.MethodPost:
		var req respondRequest
		if !decodeValid(w, r, &req) {
			return
		}
		resp, err := a.cfg.Tickets.Respond(r.Context(), user, id, req.Message)
		if err != nil {
			handleTicketError(w, r, err)
			return
		}
		// Tell the ticket owner about staff replies.
		if resp.FromSupport {
			t, err := a.cfg.Tickets.Get(r.Context(), user, id)
			if err == nil {
				if _, err := a.cfg.Hub.Publish(r.Context(), t.UserID, notify.TypeTicket,
					"Nueva respuesta de soporte", fmt.Sprintf("Soporte respondió en %q.", t.Title)); err != nil {
					obs.LogError("tickets.response.notify", err)
				}
			}
		}
		writeJSON(w, http.StatusCreated, resp)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func handleTicketError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tickets.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "ticket not found")
	case errors.Is(err, tickets.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "operation not permitted")
	case errors.Is(err, tickets.ErrInvalidTransition), errors.Is(err, tickets.ErrTicketClosed):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		writeError(w, r, http.StatusBadRequest, err.Error())
	}
}
