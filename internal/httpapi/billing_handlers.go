package httpapi

import (
	"errors"
	"net/http"

	"softwarepar.lat/internal/audit"
	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/billing"
	"softwarepar.lat/internal/projects"
)

type createPaymentRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
}

func (a *API) handlePaymentCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req createPaymentRequest
	if !decodeValid(w, r, &req) {
		return
	}

	// Visibility gate: the caller must be able to see the project.
	if _, err := a.cfg.Projects.Get(r.Context(), user, a.partnerID(r, user), req.ProjectID); err != nil {
		handleProjectError(w, r, err)
		return
	}

	pref, err := a.cfg.Billing.CreatePayment(r.Context(), req.ProjectID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNotConfigured):
			writeError(w, r, http.StatusServiceUnavailable, "payments are not configured")
		case errors.Is(err, projects.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "project not found")
		default:
			writeError(w, r, http.StatusBadRequest, err.Error())
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "billing.payment.created", map[string]any{
		"payment_id": pref.Payment.ID,
		"project_id": pref.Payment.ProjectID,
	})
	writeJSON(w, http.StatusCreated, pref)
}

// handlePaymentWebhook receives provider callbacks. Always 200 on processed
// events, including replays; the provider retries non-2xx responses forever.
func (a *API) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var evt billing.WebhookEvent
	if err := decodeJSON(w, r, &evt); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.cfg.Billing.HandleWebhook(r.Context(), evt); err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "payment not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	_ = audit.LogEvent(r.Context(), "billing.webhook.processed", map[string]any{
		"reference": evt.ExternalReference,
		"status":    evt.PaymentStatus,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "processed"})
}

type providerConfigRequest struct {
	AccessToken string `json:"access_token" validate:"required,min=8"`
	PublicKey   string `json:"public_key" validate:"required,min=8"`
	WebhookURL  string `json:"webhook_url,omitempty" validate:"omitempty,url"`
}

func (a *API) handleProviderConfig(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		cfg, err := a.cfg.Billing.Config()
		if err != nil {
			if errors.Is(err, billing.ErrNotConfigured) {
				writeError(w, r, http.StatusNotFound, "provider not configured")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	case http.MethodPut:
		var req providerConfigRequest
		if !decodeValid(w, r, &req) {
			return
		}
		if err := a.cfg.Billing.Configure(billing.ProviderConfig{
			AccessToken: req.AccessToken,
			PublicKey:   req.PublicKey,
			WebhookURL:  req.WebhookURL,
		}); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		_ = audit.LogEvent(r.Context(), "billing.provider.configured", nil)
		writeJSON(w, http.StatusOK, map[string]any{"status": "configured"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}
