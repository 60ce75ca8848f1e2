package ledger

import (
	"context"
	"strings"

	"softwarepar.lat/internal/ids"
	"softwarepar.lat/internal/obs"
)

// Service provides commission accounting on top of a Store. All failures are
// ordinary error results; the HTTP layer maps them to 4xx responses.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterPartner creates the ledger entry for a user. rateBps of zero means
// the default 25.00%.
func (s *Service) RegisterPartner(ctx context.Context, userID string, rateBps int64) (*Partner, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrNotFound
	}
	if rateBps == 0 {
		rateBps = DefaultCommissionRateBps
	}
	if rateBps < 0 || rateBps > maxRateBps {
		return nil, ErrInvalidRate
	}
	p := &Partner{
		ID:                ids.New(),
		UserID:            userID,
		ReferralCode:      ids.ReferralCode(userID),
		CommissionRateBps: rateBps,
	}
	if err := s.store.CreatePartner(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Partners lists every ledger entry, newest first.
func (s *Service) Partners(ctx context.Context) ([]*Partner, error) {
	return s.store.ListPartners(ctx)
}

// Partner returns the ledger entry owned by the given user.
func (s *Service) Partner(ctx context.Context, userID string) (*Partner, error) {
	return s.store.FindPartnerByUser(ctx, userID)
}

// DetachPartner removes a user's ledger entry, e.g. when an admin demotes
// the account. Refused while any referral is still pending or converted,
// since deleting would orphan unsettled or unpaid commissions.
func (s *Service) DetachPartner(ctx context.Context, userID string) error {
	partner, err := s.store.FindPartnerByUser(ctx, userID)
	if err != nil {
		return err
	}
	referrals, err := s.store.ListReferrals(ctx, partner.ID)
	if err != nil {
		return err
	}
	for _, r := range referrals {
		if r.Status != StatusPaid {
			return ErrPartnerActive
		}
	}
	return s.store.DeletePartner(ctx, partner.ID)
}

// PartnerByID returns a ledger entry by its own id.
func (s *Service) PartnerByID(ctx context.Context, id string) (*Partner, error) {
	return s.store.FindPartner(ctx, id)
}

// PartnerByCode resolves a referral code, e.g. when a referred client signs up.
func (s *Service) PartnerByCode(ctx context.Context, code string) (*Partner, error) {
	return s.store.FindPartnerByCode(ctx, strings.TrimSpace(code))
}

// RecordReferral creates a pending referral with zero commission.
func (s *Service) RecordReferral(ctx context.Context, partnerID, clientID, projectID string) (*Referral, error) {
	if _, err := s.store.FindPartner(ctx, partnerID); err != nil {
		return nil, err
	}
	r := &Referral{
		ID:        ids.New(),
		PartnerID: partnerID,
		ClientID:  clientID,
		ProjectID: projectID,
		Status:    StatusPending,
	}
	if err := s.store.CreateReferral(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Referrals lists a partner's referrals, newest first.
func (s *Service) Referrals(ctx context.Context, partnerID string) ([]*Referral, error) {
	return s.store.ListReferrals(ctx, partnerID)
}

// SettleCommission converts a pending referral against the given project
// price. The commission amount is price × partner rate, and the credit to
// partner earnings happens exactly once: a second call reports
// ErrAlreadySettled and leaves the ledger untouched.
func (s *Service) SettleCommission(ctx context.Context, referralID string, projectPriceCents int64) (*Referral, error) {
	referral, err := s.store.FindReferral(ctx, referralID)
	if err != nil {
		return nil, err
	}
	partner, err := s.store.FindPartner(ctx, referral.PartnerID)
	if err != nil {
		return nil, err
	}

	amount := CommissionFor(projectPriceCents, partner.CommissionRateBps)
	settled, err := s.store.Settle(ctx, referralID, amount)
	if err != nil {
		if err == ErrAlreadySettled {
			obs.CommissionsSettled.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}
	obs.CommissionsSettled.WithLabelValues("settled").Inc()
	return settled, nil
}

// SettleByProject settles the referral tied to a project, if one exists.
// Called when a project closes; a project without a referral is not an error
// and reports ErrNotFound for the caller to ignore.
func (s *Service) SettleByProject(ctx context.Context, projectID string, projectPriceCents int64) (*Referral, error) {
	referral, err := s.store.FindReferralByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.SettleCommission(ctx, referral.ID, projectPriceCents)
}

// MarkPaid records that a settled commission was paid out to the partner.
func (s *Service) MarkPaid(ctx context.Context, referralID string) (*Referral, error) {
	return s.store.MarkPaid(ctx, referralID)
}

// PartnerStats aggregates the referral set into the partner dashboard report.
func (s *Service) PartnerStats(ctx context.Context, partnerID string) (Stats, error) {
	partner, err := s.store.FindPartner(ctx, partnerID)
	if err != nil {
		return Stats{}, err
	}
	referrals, err := s.store.ListReferrals(ctx, partnerID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalEarningsCents: partner.TotalEarningsCents,
		ActiveReferrals:    len(referrals),
	}
	for _, r := range referrals {
		if r.Status == StatusPaid {
			stats.ClosedSales++
		}
	}
	if stats.ActiveReferrals > 0 {
		// Integer round-half-up of closed/active×100.
		stats.ConversionRate = int((int64(stats.ClosedSales)*200 + int64(stats.ActiveReferrals)) / (2 * int64(stats.ActiveReferrals)))
	}
	return stats, nil
}
