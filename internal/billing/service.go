// Package billing records project payments and processes provider webhooks.
// The provider surface is MercadoPago shaped but deliberately thin: checkout
// preferences are built locally and the webhook only carries the outcome.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/ids"
	"softwarepar.lat/internal/ledger"
	"softwarepar.lat/internal/mailer"
	"softwarepar.lat/internal/notify"
	"softwarepar.lat/internal/obs"
	"softwarepar.lat/internal/projects"
)

// Service handles checkout creation and webhook settlement. Commission
// settlement, notifications and mail are side effects of a completed
// payment; their failures are logged and never fail the webhook.
type Service struct {
	store    Store
	projects projects.Store
	ledger   *ledger.Service
	users    auth.UserStore
	hub      *notify.Hub
	mail     *mailer.Mailer

	cfg atomic.Pointer[ProviderConfig]
}

func NewService(store Store, projectStore projects.Store, led *ledger.Service, users auth.UserStore, hub *notify.Hub, mail *mailer.Mailer) *Service {
	return &Service{
		store:    store,
		projects: projectStore,
		ledger:   led,
		users:    users,
		hub:      hub,
		mail:     mail,
	}
}

// Configure swaps the provider credentials. The config object is replaced
// wholesale so readers never observe a partial update.
func (s *Service) Configure(cfg ProviderConfig) error {
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.PublicKey = strings.TrimSpace(cfg.PublicKey)
	if cfg.AccessToken == "" || cfg.PublicKey == "" {
		return fmt.Errorf("billing: access token and public key required")
	}
	s.cfg.Store(&cfg)
	return nil
}

// Config returns the masked provider credentials for the admin panel.
func (s *Service) Config() (ProviderConfig, error) {
	cfg := s.cfg.Load()
	if cfg == nil {
		return ProviderConfig{}, ErrNotConfigured
	}
	return cfg.Masked(), nil
}

// Preference is the checkout handle returned to the frontend.
type Preference struct {
	Payment   *Payment `json:"payment"`
	PublicKey string   `json:"public_key"`
	InitPoint string   `json:"init_point"`
}

// CreatePayment opens a pending payment for a project and builds the
// checkout preference the frontend redirects to.
func (s *Service) CreatePayment(ctx context.Context, projectID string) (*Preference, error) {
	cfg := s.cfg.Load()
	if cfg == nil {
		return nil, ErrNotConfigured
	}
	project, err := s.projects.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.PriceCents <= 0 {
		return nil, fmt.Errorf("billing: project has no price")
	}

	p := &Payment{
		ID:           ids.New(),
		ProjectID:    project.ID,
		AmountCents:  project.PriceCents,
		Status:       StatusPending,
		PreferenceID: ids.New(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	return &Preference{
		Payment:   p,
		PublicKey: cfg.PublicKey,
		InitPoint: "https://www.mercadopago.com/checkout/v1/redirect?pref_id=" + p.PreferenceID,
	}, nil
}

// Payments lists the payments recorded against a project.
func (s *Service) Payments(ctx context.Context, projectID string) ([]*Payment, error) {
	return s.store.ListByProject(ctx, projectID)
}

// WebhookEvent is the provider callback payload. ExternalReference carries
// the payment id we issued at checkout time.
type WebhookEvent struct {
	Type              string `json:"type"`
	ExternalReference string `json:"external_reference"`
	TransactionID     string `json:"transaction_id"`
	PaymentStatus     string `json:"status"`
	Method            string `json:"payment_method,omitempty"`
}

// HandleWebhook applies a provider outcome to the referenced payment.
// Duplicate deliveries are acknowledged without effect: the status CAS in
// the store rejects the second transition and the ledger CAS rejects a
// second settlement independently.
func (s *Service) HandleWebhook(ctx context.Context, evt WebhookEvent) error {
	if evt.Type != "payment" {
		return nil
	}
	status := StatusFailed
	if evt.PaymentStatus == "approved" {
		status = StatusCompleted
	}

	p, err := s.store.SetStatus(ctx, evt.ExternalReference, status, evt.Method, evt.TransactionID)
	if errors.Is(err, ErrFinalStatus) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.Status != StatusCompleted {
		return nil
	}

	s.settleAndNotify(ctx, p)
	return nil
}

// settleAndNotify runs the post-payment side effects. Everything here is
// best effort.
func (s *Service) settleAndNotify(ctx context.Context, p *Payment) {
	project, err := s.projects.Find(ctx, p.ProjectID)
	if err != nil {
		obs.LogError("billing.webhook.project", err)
		return
	}

	amount := fmt.Sprintf("$%d.%02d", p.AmountCents/100, p.AmountCents%100)
	if _, err := s.hub.Publish(ctx, project.ClientID, notify.TypePayment,
		"Pago recibido", fmt.Sprintf("Recibimos tu pago de %s por %s.", amount, project.Name)); err != nil {
		obs.LogError("billing.webhook.notify_client", err)
	}

	referral, err := s.ledger.SettleByProject(ctx, project.ID, project.PriceCents)
	if err != nil {
		// No referral, or it settled on an earlier delivery.
		if !errors.Is(err, ledger.ErrNotFound) && !errors.Is(err, ledger.ErrAlreadySettled) {
			obs.LogError("billing.webhook.settle", err)
		}
		return
	}

	partner, err := s.ledger.PartnerByID(ctx, referral.PartnerID)
	if err != nil {
		obs.LogError("billing.webhook.partner", err)
		return
	}
	commission := fmt.Sprintf("$%d.%02d", referral.CommissionAmountCents/100, referral.CommissionAmountCents%100)
	if _, err := s.hub.Publish(ctx, partner.UserID, notify.TypeCommission,
		"Comisión acreditada", fmt.Sprintf("Se acreditó una comisión de %s por %s.", commission, project.Name)); err != nil {
		obs.LogError("billing.webhook.notify_partner", err)
	}
	user, err := s.users.Find(ctx, partner.UserID)
	if err != nil {
		obs.LogError("billing.webhook.partner_user", err)
		return
	}
	if err := s.mail.CommissionSettled(user.Email, referral.CommissionAmountCents); err != nil {
		obs.LogError("billing.webhook.mail", err)
	}
}
