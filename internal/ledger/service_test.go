package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func newTestService(t *testing.T) (*Service, *InMemory) {
	t.Helper()
	store := NewInMemory()
	return NewService(store), store
}

func TestRegisterPartnerDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.RegisterPartner(ctx, "user-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if p.CommissionRateBps != DefaultCommissionRateBps {
		t.Fatalf("expected default rate, got %d", p.CommissionRateBps)
	}
	if len(p.ReferralCode) == 0 || p.ReferralCode[:3] != "PAR" {
		t.Fatalf("unexpected referral code %q", p.ReferralCode)
	}

	if _, err := svc.RegisterPartner(ctx, "user-1", 0); err != ErrDuplicatePartner {
		t.Fatalf("expected ErrDuplicatePartner, got %v", err)
	}
}

func TestRegisterPartnerRejectsBadRate(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.RegisterPartner(context.Background(), "user-1", 20000); err != ErrInvalidRate {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestSettleCommissionAmount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.RegisterPartner(ctx, "partner-user", 2500)
	r, err := svc.RecordReferral(ctx, p.ID, "client-user", "project-1")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusPending || r.CommissionAmountCents != 0 {
		t.Fatalf("unexpected fresh referral: %+v", r)
	}

	// $4000 project at 25% yields a $1000 commission.
	settled, err := svc.SettleCommission(ctx, r.ID, 400000)
	if err != nil {
		t.Fatal(err)
	}
	if settled.CommissionAmountCents != 100000 {
		t.Fatalf("expected 100000 cents, got %d", settled.CommissionAmountCents)
	}
	if settled.Status != StatusConverted {
		t.Fatalf("expected converted, got %s", settled.Status)
	}

	updated, _ := svc.Partner(ctx, "partner-user")
	if updated.TotalEarningsCents != 100000 {
		t.Fatalf("earnings not credited: %d", updated.TotalEarningsCents)
	}
}

func TestSettleCommissionIsIdempotentInEffect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.RegisterPartner(ctx, "partner-user", 2500)
	r, _ := svc.RecordReferral(ctx, p.ID, "client-user", "")

	if _, err := svc.SettleCommission(ctx, r.ID, 400000); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SettleCommission(ctx, r.ID, 400000); err != ErrAlreadySettled {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}

	updated, _ := svc.Partner(ctx, "partner-user")
	if updated.TotalEarningsCents != 100000 {
		t.Fatalf("earnings double-counted: %d", updated.TotalEarningsCents)
	}
}

func TestConcurrentSettlementCreditsOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.RegisterPartner(ctx, "partner-user", 2500)
	r, _ := svc.RecordReferral(ctx, p.ID, "client-user", "")

	var wg sync.WaitGroup
	successes := make(chan struct{}, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.SettleCommission(ctx, r.ID, 400000); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	var n int
	for range successes {
		n++
	}
	if n != 1 {
		t.Fatalf("expected exactly one successful settlement, got %d", n)
	}
	updated, _ := svc.Partner(ctx, "partner-user")
	if updated.TotalEarningsCents != 100000 {
		t.Fatalf("earnings corrupted under concurrency: %d", updated.TotalEarningsCents)
	}
}

func TestMarkPaidRequiresConversion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.RegisterPartner(ctx, "partner-user", 0)
	r, _ := svc.RecordReferral(ctx, p.ID, "client-user", "")

	if _, err := svc.MarkPaid(ctx, r.ID); err != ErrNotConverted {
		t.Fatalf("expected ErrNotConverted, got %v", err)
	}
	if _, err := svc.SettleCommission(ctx, r.ID, 100000); err != nil {
		t.Fatal(err)
	}
	paid, err := svc.MarkPaid(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if paid.Status != StatusPaid {
		t.Fatalf("expected paid, got %s", paid.Status)
	}
}

func TestPartnerStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.RegisterPartner(ctx, "partner-user", 2500)

	stats, err := svc.PartnerStats(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ActiveReferrals != 0 || stats.ConversionRate != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	r1, _ := svc.RecordReferral(ctx, p.ID, "c1", "")
	r2, _ := svc.RecordReferral(ctx, p.ID, "c2", "")
	if _, err := svc.RecordReferral(ctx, p.ID, "c3", ""); err != nil {
		t.Fatal(err)
	}

	for _, r := range []*Referral{r1, r2} {
		if _, err := svc.SettleCommission(ctx, r.ID, 100000); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.MarkPaid(ctx, r1.ID); err != nil {
		t.Fatal(err)
	}

	stats, err = svc.PartnerStats(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ActiveReferrals != 3 {
		t.Fatalf("expected 3 referrals, got %d", stats.ActiveReferrals)
	}
	if stats.ClosedSales != 1 {
		t.Fatalf("expected 1 closed sale, got %d", stats.ClosedSales)
	}
	// round(1/3 × 100) = 33
	if stats.ConversionRate != 33 {
		t.Fatalf("expected conversion 33, got %d", stats.ConversionRate)
	}
	if stats.TotalEarningsCents != 50000 {
		t.Fatalf("expected 50000 cents earned, got %d", stats.TotalEarningsCents)
	}
}

func TestCommissionForRounding(t *testing.T) {
	cases := []struct {
		price, rate, want int64
	}{
		{400000, 2500, 100000},
		{0, 2500, 0},
		{1, 2500, 0},    // 0.25 cents rounds down
		{3, 2500, 1},    // 0.75 cents rounds up
		{9999, 3333, 3333},
		{100, 10000, 100},
	}
	for _, c := range cases {
		if got := CommissionFor(c.price, c.rate); got != c.want {
			t.Fatalf("CommissionFor(%d,%d) = %d, want %d", c.price, c.rate, got, c.want)
		}
	}
}

func TestDetachPartnerGuardsUnpaidReferrals(t *testing.T) {
	svc := NewService(NewInMemory())
	partner, err := svc.RegisterPartner(context.Background(), "user-7", 0)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	ref, err := svc.RecordReferral(context.Background(), partner.ID, "client-1", "proj-1")
	if err != nil {
		t.Fatalf("record referral: %v", err)
	}

	if err := svc.DetachPartner(context.Background(), "user-7"); !errors.Is(err, ErrPartnerActive) {
		t.Fatalf("detach with pending referral: err = %v, want ErrPartnerActive", err)
	}

	if _, err := svc.SettleCommission(context.Background(), ref.ID, 400000); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := svc.DetachPartner(context.Background(), "user-7"); !errors.Is(err, ErrPartnerActive) {
		t.Fatalf("detach with converted referral: err = %v, want ErrPartnerActive", err)
	}

	if _, err := svc.MarkPaid(context.Background(), ref.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if err := svc.DetachPartner(context.Background(), "user-7"); err != nil {
		t.Fatalf("detach after payout: %v", err)
	}
	if _, err := svc.Partner(context.Background(), "user-7"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("partner after detach: err = %v, want ErrNotFound", err)
	}
}
