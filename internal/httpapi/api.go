// Package httpapi is the REST and websocket surface of the service.
// Routing is a plain http.ServeMux with manual sub-path dispatch; every
// handler speaks JSON through the shared write/decode helpers.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/billing"
	"softwarepar.lat/internal/ledger"
	"softwarepar.lat/internal/mailer"
	"softwarepar.lat/internal/notify"
	"softwarepar.lat/internal/obs"
	"softwarepar.lat/internal/portfolio"
	"softwarepar.lat/internal/projects"
	"softwarepar.lat/internal/tickets"
)

// ReadyProbe checks the dependencies behind /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config wires the services into the HTTP layer.
type Config struct {
	Users     auth.UserStore
	Ledger    *ledger.Service
	Projects  *projects.Service
	Tickets   *tickets.Service
	Portfolio *portfolio.Service
	Billing   *billing.Service
	Hub       *notify.Hub
	Mailer    *mailer.Mailer

	ReadyProbe ReadyProbe
	Version    string
	// ContactEmail receives contact form submissions.
	ContactEmail string
}

// API is the HTTP layer.
type API struct {
	mux *http.ServeMux
	cfg Config

	rateBurst  int
	ratePerSec int
}

func New(cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		cfg:        cfg,
		rateBurst:  40,
		ratePerSec: 20,
	}

	// health/ready/metrics
	a.mux.HandleFunc("/healthz", a.healthz)
	a.mux.HandleFunc("/readyz", a.ready)
	a.mux.Handle("/metrics", obs.Handler())

	// auth + public contact
	a.mux.HandleFunc("/api/auth/register", a.handleRegister)
	a.mux.HandleFunc("/api/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/auth/me", a.handleMe)
	a.mux.HandleFunc("/api/contact", a.handleContact)

	// admin user management
	a.mux.HandleFunc("/api/users", a.handleUsersCollection)
	a.mux.HandleFunc("/api/users/", a.handleUserResource)

	// partners + referrals
	a.mux.HandleFunc("/api/partners", a.handlePartnersCollection)
	a.mux.HandleFunc("/api/partners/me", a.handlePartnerMe)
	a.mux.HandleFunc("/api/partners/referrals", a.handlePartnerReferrals)
	a.mux.HandleFunc("/api/partners/referrals/", a.handleReferralResource)

	// projects and nested records
	a.mux.HandleFunc("/api/projects", a.handleProjectsCollection)
	a.mux.HandleFunc("/api/projects/", a.handleProjectResource)

	// tickets
	a.mux.HandleFunc("/api/tickets", a.handleTicketsCollection)
	a.mux.HandleFunc("/api/tickets/", a.handleTicketResource)

	// notifications
	a.mux.HandleFunc("/api/notifications", a.handleNotifications)
	a.mux.HandleFunc("/api/notifications/", a.handleNotificationResource)

	// portfolio
	a.mux.HandleFunc("/api/portfolio", a.handlePortfolioCollection)
	a.mux.HandleFunc("/api/portfolio/", a.handlePortfolioResource)

	// billing
	a.mux.HandleFunc("/api/payments/create", a.handlePaymentCreate)
	a.mux.HandleFunc("/api/payments/webhook", a.handlePaymentWebhook)
	a.mux.HandleFunc("/api/admin/mercadopago", a.handleProviderConfig)
	a.mux.HandleFunc("/api/admin/stats", a.handleAdminStats)

	// websocket relay
	a.mux.HandleFunc("/ws", a.handleWS)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "softwarepar-api",
		"version": a.cfg.Version,
	})
}

func (a *API) ready(w http.ResponseWriter, r *http.Request) {
	if err := a.cfg.ReadyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
