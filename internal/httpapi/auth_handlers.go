package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"softwarepar.lat/internal/audit"
	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/ledger"
	"softwarepar.lat/internal/obs"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2,max=120"`
	// Self-registration never grants admin.
	Role         string `json:"role,omitempty" validate:"omitempty,oneof=client partner"`
	ReferralCode string `json:"referral_code,omitempty" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
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

	// Registering as partner opens the ledger entry alongside the account.
	if role == auth.RolePartner {
		if _, err := a.cfg.Ledger.RegisterPartner(r.Context(), user.ID, 0); err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
	}

	// A referral code ties the new client to the referring partner. An
	// unknown code does not block registration.
	if code := strings.TrimSpace(req.ReferralCode); code != "" {
		if partner, err := a.cfg.Ledger.PartnerByCode(r.Context(), code); err == nil {
			if _, err := a.cfg.Ledger.RecordReferral(r.Context(), partner.ID, user.ID, ""); err != nil {
				obs.LogError("auth.register.referral", err)
			}
		} else if !errors.Is(err, ledger.ErrNotFound) {
			obs.LogError("auth.register.referral_lookup", err)
		}
	}

	if err := a.cfg.Mailer.Welcome(user.Email, user.FullName); err != nil {
		obs.LogError("auth.register.welcome_mail", err)
	}

	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})

	a.writeSession(w, r, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := a.cfg.Users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response as a wrong password.
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.Active || auth.VerifyPassword(user.PasswordHash, req.Password) != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.user.login", map[string]any{
		"user_id": user.ID,
	})

	a.writeSession(w, r, user)
}

func (a *API) writeSession(w http.ResponseWriter, r *http.Request, user *auth.User) {
	token, err := auth.GenerateToken(user.ID, user.Role, auth.DefaultTokenTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(auth.DefaultTokenTTL),
		User:      user,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10,max=4000"`
}

func (a *API) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req contactRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if a.cfg.ContactEmail != "" {
		if err := a.cfg.Mailer.ContactNotification(a.cfg.ContactEmail, req.Name, req.Email, req.Message); err != nil {
			obs.LogError("contact.mail", err)
		}
	}

	_ = audit.LogEvent(r.Context(), "contact.submitted", map[string]any{
		"email": req.Email,
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received"})
}
