package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"softwarepar.lat/internal/audit"
	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/ledger"
)

type createPartnerRequest struct {
	UserID            string `json:"user_id" validate:"required"`
	CommissionRateBps int64  `json:"commission_rate_bps,omitempty" validate:"omitempty,min=1,max=10000"`
}

func (a *API) handlePartnersCollection(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.listPartners(w, r)
	case http.MethodPost:
		a.createPartner(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listPartners(w http.ResponseWriter, r *http.Request) {
	partners, err := a.cfg.Ledger.Partners(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, partners)
}

// createPartner enrolls an existing user into the partner program: the user
// is promoted to the partner role and a ledger entry with a referral code
// is created.
func (a *API) createPartner(w http.ResponseWriter, r *http.Request) {
	var req createPartnerRequest
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := a.cfg.Users.Find(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	partner, err := a.cfg.Ledger.RegisterPartner(r.Context(), user.ID, req.CommissionRateBps)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicatePartner):
			writeError(w, r, http.StatusConflict, "user is already a partner")
		case errors.Is(err, ledger.ErrInvalidRate):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if user.Role != auth.RolePartner {
		user.Role = auth.RolePartner
		if err := a.cfg.Users.Update(r.Context(), user); err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
	}

	_ = audit.LogEvent(r.Context(), "partners.created", map[string]any{
		"partner_id":    partner.ID,
		"user_id":       user.ID,
		"referral_code": partner.ReferralCode,
	})
	writeJSON(w, http.StatusCreated, partner)
}

type partnerDashboard struct {
	Partner *ledger.Partner `json:"partner"`
	Stats   ledger.Stats    `json:"stats"`
}

func (a *API) handlePartnerMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireRole(w, r, auth.RolePartner)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	partner, err := a.cfg.Ledger.Partner(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "partner not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	stats, err := a.cfg.Ledger.PartnerStats(r.Context(), partner.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, partnerDashboard{Partner: partner, Stats: stats})
}

func (a *API) handlePartnerReferrals(w http.ResponseWriter, r *http.Request) {
	user, ok := requireRole(w, r, auth.RolePartner)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	partner, err := a.cfg.Ledger.Partner(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "partner not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	referrals, err := a.cfg.Ledger.Referrals(r.Context(), partner.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, referrals)
}

// handleReferralResource covers admin mutations on a single referral,
// currently only the payout confirmation.
func (a *API) handleReferralResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/partners/referrals/")
	id, action, _ := strings.Cut(path, "/")
	if id == "" || action != "paid" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if _, ok := requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	referral, err := a.cfg.Ledger.MarkPaid(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "referral not found")
		case errors.Is(err, ledger.ErrNotConverted):
			writeError(w, r, http.StatusConflict, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "partners.referral.paid", map[string]any{
		"referral_id": referral.ID,
		"partner_id":  referral.PartnerID,
	})
	writeJSON(w, http.StatusOK, referral)
}
