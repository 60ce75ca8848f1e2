package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"softwarepar.lat/internal/audit"
	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/ledger"
	"softwarepar.lat/internal/notify"
	"softwarepar.lat/internal/obs"
	"softwarepar.lat/internal/projects"
)

// partnerID resolves the actor's ledger partner id, empty for non-partners.
func (a *API) partnerID(r *http.Request, user *auth.User) string {
	if user.Role != auth.RolePartner {
		return ""
	}
	partner, err := a.cfg.Ledger.Partner(r.Context(), user.ID)
	if err != nil {
		return ""
	}
	return partner.ID
}

type createProjectRequest struct {
	Name         string     `json:"name" validate:"required,min=2,max=200"`
	Description  string     `json:"description,omitempty" validate:"max=4000"`
	PriceCents   int64      `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	ClientID     string     `json:"client_id,omitempty"`
	PartnerID    string     `json:"partner_id,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
}

type updateProjectRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	PriceCents   *int64     `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	Status       *string    `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	Progress     *int       `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
}

func (a *API) handleProjectsCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.cfg.Projects.List(r.Context(), user, a.partnerID(r, user))
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		a.createProject(w, r, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) createProject(w http.ResponseWriter, r *http.Request, user *auth.User) {
	var req createProjectRequest
	if !decodeValid(w, r, &req) {
		return
	}
	p, err := a.cfg.Projects.Create(r.Context(), user, projects.CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		ClientID:     req.ClientID,
		PartnerID:    req.PartnerID,
		DeliveryDate: req.DeliveryDate,
	})
	if err != nil {
		handleProjectError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "projects.created", map[string]any{
		"project_id": p.ID,
		"client_id":  p.ClientID,
	})
	w.Header().Set("Location", "/api/projects/"+p.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) handleProjectResource(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch {
	case rest == "":
		switch r.Method {
		case http.MethodGet:
			a.getProject(w, r, user, id)
		case http.MethodPut:
			a.updateProject(w, r, user, id)
		default:
			methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
		}
	case rest == "messages":
		a.handleProjectMessages(w, r, user, id)
	case rest == "files":
		a.handleProjectFiles(w, r, user, id)
	case rest == "timeline":
		a.handleProjectTimeline(w, r, user, id)
	case strings.HasPrefix(rest, "timeline/"):
		a.handleTimelineEntry(w, r, user, id, strings.TrimPrefix(rest, "timeline/"))
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getProject(w http.ResponseWriter, r *http.Request, user *auth.User, id string) {
	p, err := a.cfg.Projects.Get(r.Context(), user, a.partnerID(r, user), id)
	if err != nil {
		handleProjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) updateProject(w http.ResponseWriter, r *http.Request, user *auth.User, id string) {
	var req updateProjectRequest
	if !decodeValid(w, r, &req) {
		return
	}

	var p *projects.Project
	var err error

	if req.Name != nil || req.Description != nil || req.PriceCents != nil || req.DeliveryDate != nil {
		p, err = a.cfg.Projects.Update(r.Context(), user, id, projects.UpdateInput{
			Name:         req.Name,
			Description:  req.Description,
			PriceCents:   req.PriceCents,
			DeliveryDate: req.DeliveryDate,
		})
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
	}
	if req.Progress != nil {
		p, err = a.cfg.Projects.SetProgress(r.Context(), user, id, *req.Progress)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
	}
	if req.Status != nil {
		p, err = a.cfg.Projects.UpdateStatus(r.Context(), user, id, *req.Status)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		a.projectStatusChanged(r, p)
	}

	if p == nil {
		p, err = a.cfg.Projects.Get(r.Context(), user, a.partnerID(r, user), id)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
	}

	_ = audit.LogEvent(r.Context(), "projects.updated", map[string]any{
		"project_id": p.ID,
		"status":     p.Status,
		"progress":   p.Progress,
	})
	writeJSON(w, http.StatusOK, p)
}

// projectStatusChanged pushes the status notification and, when the project
// just completed, settles the referral commission. All best effort.
func (a *API) projectStatusChanged(r *http.Request, p *projects.Project) {
	ctx := r.Context()
	if _, err := a.cfg.Hub.Publish(ctx, p.ClientID, notify.TypeProject,
		"Estado del proyecto actualizado",
		fmt.Sprintf("%s ahora está %s.", p.Name, p.Status)); err != nil {
		obs.LogError("projects.status.notify", err)
	}
	if p.Status != projects.StatusCompleted {
		return
	}

	referral, err := a.cfg.Ledger.SettleByProject(ctx, p.ID, p.PriceCents)
	if err != nil {
		if !errors.Is(err, ledger.ErrNotFound) && !errors.Is(err, ledger.ErrAlreadySettled) {
			obs.LogError("projects.complete.settle", err)
		}
		return
	}
	_ = audit.LogEvent(ctx, "partners.commission.settled", map[string]any{
		"referral_id":  referral.ID,
		"partner_id":   referral.PartnerID,
		"amount_cents": referral.CommissionAmountCents,
	})

	partner, err := a.cfg.Ledger.PartnerByID(ctx, referral.PartnerID)
	if err != nil {
		obs.LogError("projects.complete.partner", err)
		return
	}
	commission := fmt.Sprintf("$%d.%02d", referral.CommissionAmountCents/100, referral.CommissionAmountCents%100)
	if _, err := a.cfg.Hub.Publish(ctx, partner.UserID, notify.TypeCommission,
		"Comisión acreditada",
		fmt.Sprintf("Se acreditó una comisión de %s por %s.", commission, p.Name)); err != nil {
		obs.LogError("projects.complete.notify", err)
	}
	if user, err := a.cfg.Users.Find(ctx, partner.UserID); err == nil {
		if err := a.cfg.Mailer.CommissionSettled(user.Email, referral.CommissionAmountCents); err != nil {
			obs.LogError("projects.complete.mail", err)
		}
	}
}

type postMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

func (a *API) handleProjectMessages(w http.ResponseWriter, r *http.Request, user *auth.User, id string) {
	switch r.Method {
	case http.MethodGet:
		msgs, err := a.cfg.Projects.Messages(r.Context(), user, a.partnerID(r, user), id)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, msgs)
	case http.MethodPost:
		var req postMessageRequest
		if !decodeValid(w, r, &req) {
			return
		}
		m, err := a.cfg.Projects.PostMessage(r.Context(), user, a.partnerID(r, user), id, req.Message)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type addFileRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
	FileURL  string `json:"file_url" validate:"required,url,max=2000"`
	FileType string `json:"file_type,omitempty" validate:"omitempty,max=100"`
}

func (a *API) handleProjectFiles(w http.ResponseWriter, r *http.Request, user *auth.User, id string) {
	switch r.Method {
	case http.MethodGet:
		files, err := a.cfg.Projects.Files(r.Context(), user, a.partnerID(r, user), id)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, files)
	case http.MethodPost:
		var req addFileRequest
		if !decodeValid(w, r, &req) {
			return
		}
		f, err := a.cfg.Projects.AddFile(r.Context(), user, id, req.FileName, req.FileURL, req.FileType)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type addTimelineRequest struct {
	Title         string     `json:"title" validate:"required,min=2,max=200"`
	Description   string     `json:"description,omitempty" validate:"max=2000"`
	EstimatedDate *time.Time `json:"estimated_date,omitempty"`
}

func (a *API) handleProjectTimeline(w http.ResponseWriter, r *http.Request, user *auth.User, id string) {
	switch r.Method {
	case http.MethodGet:
		entries, err := a.cfg.Projects.Timeline(r.Context(), user, a.partnerID(r, user), id)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case http.MethodPost:
		var req addTimelineRequest
		if !decodeValid(w, r, &req) {
			return
		}
		e, err := a.cfg.Projects.AddTimelineEntry(r.Context(), user, id, req.Title, req.Description, req.EstimatedDate)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTimelineEntry(w http.ResponseWriter, r *http.Request, user *auth.User, projectID, entryID string) {
	if entryID == "" || strings.Contains(entryID, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	e, err := a.cfg.Projects.CompleteTimelineEntry(r.Context(), user, projectID, entryID)
	if err != nil {
		handleProjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func handleProjectError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, projects.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "project not found")
	case errors.Is(err, projects.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "operation not permitted")
	case errors.Is(err, projects.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, projects.ErrInvalidProgress):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusBadRequest, err.Error())
	}
}
