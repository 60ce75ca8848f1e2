package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"softwarepar.lat/internal/audit"
	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/ledger"
)

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		users, err := a.cfg.Users.List(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, users)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	// Unlike self-registration, an admin may create any role.
	Role string `json:"role,omitempty" validate:"omitempty,oneof=admin client partner"`
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeValid(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	role := req.Role
	if role == "" {
		role = auth.RoleClient
	}
	user := &auth.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		Active:       true,
	}
	if err := a.cfg.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			writeError(w, r, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if role == auth.RolePartner {
		if _, err := a.cfg.Ledger.RegisterPartner(r.Context(), user.ID, 0); err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
	}

	_ = audit.LogEvent(r.Context(), "users.created", map[string]any{
		"user_id": user.ID,
		"role":    user.Role,
	})
	writeJSON(w, http.StatusCreated, user)
}

type updateUserRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=2,max=120"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=admin client partner"`
	Active   *bool   `json:"is_active,omitempty"`
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodPut:
		a.updateUser(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodPut)
	}
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, id string) {
	var req updateUserRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := a.cfg.Users.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	// Demoting a partner requires their ledger entry to be settled and
	// removed first; otherwise commissions would be orphaned.
	if req.Role != nil && user.Role == auth.RolePartner && *req.Role != auth.RolePartner {
		err := a.cfg.Ledger.DetachPartner(r.Context(), user.ID)
		switch {
		case err == nil, errors.Is(err, ledger.ErrNotFound):
			// Detached, or there was no ledger entry to begin with.
		case errors.Is(err, ledger.ErrPartnerActive):
			writeError(w, r, http.StatusConflict, "partner has unpaid referrals")
			return
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
	}

	// A bare activation toggle is the common moderation action; it writes
	// just the flag instead of the whole row.
	if req.FullName == nil && req.Role == nil && req.Active != nil {
		if err := a.cfg.Users.SetActive(r.Context(), user.ID, *req.Active); err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		user.Active = *req.Active
		_ = audit.LogEvent(r.Context(), "users.updated", map[string]any{
			"user_id": user.ID,
			"active":  user.Active,
		})
		writeJSON(w, http.StatusOK, user)
		return
	}

	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := a.cfg.Users.Update(r.Context(), user); err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "users.updated", map[string]any{
		"user_id": user.ID,
		"role":    user.Role,
		"active":  user.Active,
	})
	writeJSON(w, http.StatusOK, user)
}
