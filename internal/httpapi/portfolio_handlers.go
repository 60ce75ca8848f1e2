package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"softwarepar.lat/internal/audit"
	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/portfolio"
)

type createPortfolioRequest struct {
	Title        string `json:"title" validate:"required,min=2,max=200"`
	Description  string `json:"description,omitempty" validate:"max=4000"`
	Category     string `json:"category,omitempty" validate:"max=100"`
	Technologies string `json:"technologies,omitempty" validate:"max=500"`
	ImageURL     string `json:"image_url,omitempty" validate:"omitempty,url,max=2000"`
	DemoURL      string `json:"demo_url,omitempty" validate:"omitempty,url,max=2000"`
	Featured     bool   `json:"featured,omitempty"`
}

type updatePortfolioRequest struct {
	Title        *string `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=4000"`
	Category     *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Technologies *string `json:"technologies,omitempty" validate:"omitempty,max=500"`
	ImageURL     *string `json:"image_url,omitempty" validate:"omitempty,url,max=2000"`
	DemoURL      *string `json:"demo_url,omitempty" validate:"omitempty,url,max=2000"`
	Featured     *bool   `json:"featured,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

func (a *API) handlePortfolioCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Public read. Admins get the full set including inactive items.
		if user, ok := auth.UserFromContext(r.Context()); ok && user.Role == auth.RoleAdmin {
			items, err := a.cfg.Portfolio.All(r.Context())
			if err != nil {
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			writeJSON(w, http.StatusOK, items)
			return
		}
		items, err := a.cfg.Portfolio.Public(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
			return
		}
		var req createPortfolioRequest
		if !decodeValid(w, r, &req) {
			return
		}
		item, err := a.cfg.Portfolio.Create(r.Context(), portfolio.CreateInput{
			Title:        req.Title,
			Description:  req.Description,
			Category:     req.Category,
			Technologies: req.Technologies,
			ImageURL:     req.ImageURL,
			DemoURL:      req.DemoURL,
			Featured:     req.Featured,
		})
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		_ = audit.LogEvent(r.Context(), "portfolio.created", map[string]any{"item_id": item.ID})
		w.Header().Set("Location", "/api/portfolio/"+item.ID)
		writeJSON(w, http.StatusCreated, item)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handlePortfolioResource(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/portfolio/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req updatePortfolioRequest
		if !decodeValid(w, r, &req) {
			return
		}
		item, err := a.cfg.Portfolio.Update(r.Context(), id, portfolio.UpdateInput{
			Title:        req.Title,
			Description:  req.Description,
			Category:     req.Category,
			Technologies: req.Technologies,
			ImageURL:     req.ImageURL,
			DemoURL:      req.DemoURL,
			Featured:     req.Featured,
			Active:       req.Active,
		})
		if err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case http.MethodDelete:
		if err := a.cfg.Portfolio.Delete(r.Context(), id); err != nil {
			handlePortfolioError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "portfolio.deleted", map[string]any{"item_id": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
	}
}

func handlePortfolioError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, portfolio.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "portfolio item not found")
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error())
}
