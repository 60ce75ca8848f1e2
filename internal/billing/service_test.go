package billing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"softwarepar.lat/internal/auth"
	"softwarepar.lat/internal/ledger"
	"softwarepar.lat/internal/mailer"
	"softwarepar.lat/internal/notify"
	"softwarepar.lat/internal/projects"
)

type fixture struct {
	svc      *Service
	projects *projects.InMemory
	ledger   *ledger.Service
	users    *auth.MemoryUserStore
	hub      *notify.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		projects: projects.NewInMemory(),
		ledger:   ledger.NewService(ledger.NewInMemory()),
		users:    auth.NewMemoryUserStore(),
		hub:      notify.NewHub(notify.NewInMemory()),
	}
	f.svc = NewService(NewInMemory(), f.projects, f.ledger, f.users, f.hub, mailer.New(mailer.Config{}))
	if err := f.svc.Configure(ProviderConfig{AccessToken: "APP_USR-token-1234", PublicKey: "pk-5678"}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	return f
}

func (f *fixture) addProject(t *testing.T, priceCents int64, partnerID string) *projects.Project {
	t.Helper()
	now := time.Now().UTC()
	p := &projects.Project{
		ID:         "proj-1",
		Name:       "Tienda online",
		PriceCents: priceCents,
		Status:     projects.StatusInProgress,
		ClientID:   "client-1",
		PartnerID:  partnerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := f.projects.Create(context.Background(), p); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func TestConfigIsMasked(t *testing.T) {
	f := newFixture(t)
	cfg, err := f.svc.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.AccessToken != "****1234" {
		t.Fatalf("access token = %q, want masked tail", cfg.AccessToken)
	}
	if cfg.PublicKey != "pk-5678" {
		t.Fatalf("public key = %q, want unmasked", cfg.PublicKey)
	}
}

func TestCreatePaymentRequiresConfig(t *testing.T) {
	svc := NewService(NewInMemory(), projects.NewInMemory(), ledger.NewService(ledger.NewInMemory()),
		auth.NewMemoryUserStore(), notify.NewHub(notify.NewInMemory()), mailer.New(mailer.Config{}))
	if _, err := svc.CreatePayment(context.Background(), "proj-1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestCreatePaymentBuildsPreference(t *testing.T) {
	f := newFixture(t)
	project := f.addProject(t, 400_000, "")

	pref, err := f.svc.CreatePayment(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if pref.Payment.Status != StatusPending {
		t.Fatalf("status = %q, want pending", pref.Payment.Status)
	}
	if pref.Payment.AmountCents != 400_000 {
		t.Fatalf("amount = %d, want project price", pref.Payment.AmountCents)
	}
	if !strings.Contains(pref.InitPoint, pref.Payment.PreferenceID) {
		t.Fatalf("init point %q missing preference id", pref.InitPoint)
	}
}

func TestWebhookSettlesCommissionOnce(t *testing.T) {
	f := newFixture(t)

	partner, err := f.ledger.RegisterPartner(context.Background(), "partner-user", 0)
	if err != nil {
		t.Fatalf("register partner: %v", err)
	}
	project := f.addProject(t, 400_000, partner.ID)
	if _, err := f.ledger.RecordReferral(context.Background(), partner.ID, "client-1", project.ID); err != nil {
		t.Fatalf("record referral: %v", err)
	}

	pref, err := f.svc.CreatePayment(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	evt := WebhookEvent{
		Type:              "payment",
		ExternalReference: pref.Payment.ID,
		TransactionID:     "mp-111",
		PaymentStatus:     "approved",
	}
	if err := f.svc.HandleWebhook(context.Background(), evt); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	// The provider retries deliveries; the second must be a no-op.
	if err := f.svc.HandleWebhook(context.Background(), evt); err != nil {
		t.Fatalf("webhook replay: %v", err)
	}

	stats, err := f.ledger.PartnerStats(context.Background(), partner.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalEarningsCents != 100_000 {
		t.Fatalf("earnings = %d, want 100000 credited exactly once", stats.TotalEarningsCents)
	}

	// Partner got the commission notification.
	partnerNotes, err := f.hub.Latest(context.Background(), "partner-user")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(partnerNotes) != 1 || partnerNotes[0].Type != notify.TypeCommission {
		t.Fatalf("partner notifications = %+v, want one commission note", partnerNotes)
	}
}

func TestWebhookRejectionMarksFailed(t *testing.T) {
	f := newFixture(t)
	project := f.addProject(t, 400_000, "")
	pref, err := f.svc.CreatePayment(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if err := f.svc.HandleWebhook(context.Background(), WebhookEvent{
		Type:              "payment",
		ExternalReference: pref.Payment.ID,
		PaymentStatus:     "rejected",
	}); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	p, err := f.svc.store.Find(context.Background(), pref.Payment.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if p.Status != StatusFailed {
		t.Fatalf("status = %q, want failed", p.Status)
	}
	// No payment notification for the client on a rejection.
	notes, _ := f.hub.Latest(context.Background(), "client-1")
	if len(notes) != 0 {
		t.Fatalf("client notifications = %d, want 0", len(notes))
	}
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.HandleWebhook(context.Background(), WebhookEvent{Type: "merchant_order"}); err != nil {
		t.Fatalf("webhook: %v", err)
	}
}
